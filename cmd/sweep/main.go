// Command sweep runs a batch of ring-road simulations over a grid of
// parameter values, writes one JSON record per run plus a CSV summary, and
// optionally catalogues the sweep in SQLite. When -viewer is set the best
// run is replayed live over WebSocket afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/db"
	"github.com/banshee-data/ringroad/internal/fsutil"
	"github.com/banshee-data/ringroad/internal/monitoring"
	"github.com/banshee-data/ringroad/internal/security"
	"github.com/banshee-data/ringroad/internal/sweep"
	"github.com/banshee-data/ringroad/internal/timeutil"
	"github.com/banshee-data/ringroad/internal/traffic"
	"github.com/banshee-data/ringroad/internal/version"
	"github.com/banshee-data/ringroad/internal/viewer"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var params multiFlag
	flag.Var(&params, "param", "Sweep parameter, repeatable: name=v1,v2 | name=min:max:step | name=lin:start:end:count")
	configPath := flag.String("config", "", "Base run configuration (JSON); defaults are used when empty")
	envFile := flag.String("env", ".env", "dotenv file with RINGROAD_* overrides (ignored when missing)")
	output := flag.String("output", "output", "Directory for sim-<i>.json records and summary.csv (cleared first)")
	dbPath := flag.String("db", "", "SQLite results catalogue; empty disables cataloguing")
	parallel := flag.Int("parallel", 0, "Concurrent runs (0 uses GOMAXPROCS)")
	seed := flag.Uint64("seed", 0, "Base seed; run i uses seed+i (0 picks random seeds)")
	viewerAddr := flag.String("viewer", "", "After the sweep, replay the best run on this address (e.g. localhost:8090)")
	warmup := flag.Int("warmup", 1000, "Steps to run before the replay starts")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "Emit JSON log lines")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if err := monitoring.Configure(*logLevel, *logJSON); err != nil {
		log.Fatalf("invalid -log-level: %v", err)
	}

	base := config.DefaultRunConfig()
	if *configPath != "" {
		var err error
		if base, err = config.LoadRunConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if err := config.ApplyEnv(&base, *envFile); err != nil {
		log.Fatalf("failed to apply environment: %v", err)
	}

	sweepParams := make([]sweep.SweepParam, 0, len(params))
	for _, p := range params {
		sp, err := sweep.ParseSweepParam(p)
		if err != nil {
			log.Fatalf("invalid -param %q: %v", p, err)
		}
		sweepParams = append(sweepParams, sp)
	}

	if err := security.ValidateOutputDir(*output); err != nil {
		log.Fatalf("invalid -output: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := sweep.RunnerConfig{
		Backend: sweep.LocalBackend{BaseSeed: *seed},
		Output:  sweep.NewOutputWriter(fsutil.OSFileSystem{}, *output),
	}
	if *dbPath != "" {
		database, err := db.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
		rc.Sink = db.NewStore(database, timeutil.RealClock{})
	}

	monitoring.Logf("%s", version.String())
	runner := sweep.NewRunner(rc)
	req := sweep.Request{Base: base, Params: sweepParams, Parallel: *parallel}
	if err := runner.Start(ctx, req); err != nil {
		log.Fatalf("failed to start sweep: %v", err)
	}
	state := runner.Wait()

	if state.Summary != nil {
		monitoring.Logf("flow rate mean %.6f stddev %.6f, collisions mean %.6f over %d runs",
			state.Summary.FlowMean, state.Summary.FlowStddev, state.Summary.CollisionsMean, len(state.Results))
	}
	if state.Status == sweep.SweepStatusError {
		monitoring.Logger.Errorf("sweep %s: %s", state.SweepID, state.Error)
	}
	if state.Best == nil {
		log.Fatalf("sweep produced no results")
	}
	best := *state.Best
	monitoring.Logf("best run %d: flow rate %.6f (max %.6f)", best.Index, best.Result.FlowRate, best.Result.MaxFlowRate)

	if *viewerAddr == "" || ctx.Err() != nil {
		if state.Status == sweep.SweepStatusError {
			os.Exit(1)
		}
		return
	}
	if err := replay(ctx, *viewerAddr, best.Config, *seed, *warmup); err != nil {
		log.Fatalf("viewer: %v", err)
	}
}

// replay warms a fresh simulation of rc up and streams it until ctx ends.
func replay(ctx context.Context, addr string, rc config.RunConfig, seed uint64, warmup int) error {
	switch {
	case rc.Seed != 0:
		seed = rc.Seed
	case seed == 0:
		seed = rand.Uint64()
	}
	sim, err := traffic.New(rc.Bake(), traffic.NewRand(seed))
	if err != nil {
		return err
	}

	loop := viewer.NewLoop(sim, viewer.LoopConfig{})
	loop.Warmup(warmup)
	monitoring.Logf("warmed up %d steps, average flow rate %.6f", warmup, loop.AverageFlowRate())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return viewer.Serve(ctx, ln, loop, viewer.NewHub(rc))
}
