// Command viewer runs one ring-road simulation in real time and streams
// rendered frames over WebSocket on /ws.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/db"
	"github.com/banshee-data/ringroad/internal/monitoring"
	"github.com/banshee-data/ringroad/internal/timeutil"
	"github.com/banshee-data/ringroad/internal/traffic"
	"github.com/banshee-data/ringroad/internal/version"
	"github.com/banshee-data/ringroad/internal/viewer"
)

func main() {
	listen := flag.String("listen", "localhost:8090", "Listen address")
	configPath := flag.String("config", "", "Run configuration (JSON); defaults are used when empty")
	envFile := flag.String("env", ".env", "dotenv file with RINGROAD_* overrides (ignored when missing)")
	dbPath := flag.String("db", "", "SQLite results catalogue to replay from (with -sweep-id)")
	sweepID := flag.String("sweep-id", "", "Replay the best run of this catalogued sweep")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one)")
	warmup := flag.Int("warmup", 1000, "Steps to run before streaming starts")
	tick := flag.Duration("tick", viewer.DefaultTickInterval, "Wall-clock time between steps")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if err := monitoring.Configure(*logLevel, false); err != nil {
		log.Fatalf("invalid -log-level: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc, err := loadRunConfig(ctx, *configPath, *envFile, *dbPath, *sweepID)
	if err != nil {
		log.Fatalf("failed to load run configuration: %v", err)
	}

	s := *seed
	switch {
	case rc.Seed != 0 && s == 0:
		s = rc.Seed
	case s == 0:
		s = rand.Uint64()
	}
	sim, err := traffic.New(rc.Bake(), traffic.NewRand(s))
	if err != nil {
		log.Fatalf("failed to create simulation: %v", err)
	}
	monitoring.WithFields(map[string]interface{}{
		"road_length": rc.RoadLength,
		"num_lanes":   rc.NumLanes,
		"num_cars":    len(sim.Vehicles()),
		"seed":        s,
	}).Info("simulation ready")

	loop := viewer.NewLoop(sim, viewer.LoopConfig{Clock: timeutil.RealClock{}, TickInterval: *tick})
	loop.Warmup(*warmup)

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	if err := viewer.Serve(ctx, ln, loop, viewer.NewHub(rc)); err != nil {
		log.Fatalf("viewer: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// loadRunConfig picks the configuration from the catalogue when a sweep is
// named, otherwise from -config plus environment overrides.
func loadRunConfig(ctx context.Context, path, envFile, dbPath, sweepID string) (config.RunConfig, error) {
	if sweepID != "" {
		if dbPath == "" {
			return config.RunConfig{}, errors.New("-sweep-id needs -db")
		}
		database, err := db.Open(dbPath)
		if err != nil {
			return config.RunConfig{}, err
		}
		defer database.Close()

		lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		best, err := db.NewStore(database, timeutil.RealClock{}).BestRun(lookupCtx, sweepID)
		if err != nil {
			return config.RunConfig{}, fmt.Errorf("best run of %s: %w", sweepID, err)
		}
		rec := best.Record()
		monitoring.Logf("replaying run %d of sweep %s (flow rate %.6f)", rec.Index, sweepID, rec.Result.FlowRate)
		return rec.Config, nil
	}

	rc := config.DefaultRunConfig()
	if path != "" {
		var err error
		if rc, err = config.LoadRunConfig(path); err != nil {
			return config.RunConfig{}, err
		}
	}
	if err := config.ApplyEnv(&rc, envFile); err != nil {
		return config.RunConfig{}, err
	}
	return rc, nil
}
