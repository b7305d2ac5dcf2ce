// Command catalog inspects the SQLite sweep catalogue and manages its
// schema.
//
//	catalog -db sweeps.db sweeps
//	catalog -db sweeps.db runs <sweep-id>
//	catalog -db sweeps.db best <sweep-id>
//	catalog -db sweeps.db migrate status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/ringroad/internal/db"
	"github.com/banshee-data/ringroad/internal/timeutil"
	"github.com/banshee-data/ringroad/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-db path] <sweeps | runs ID | best ID | migrate ...>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	dbPath := flag.String("db", "ringroad.db", "SQLite results catalogue")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if args[0] == "migrate" {
		database, err := db.OpenNoMigrate(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		if err := db.RunMigrateCommand(os.Stdout, database, args[1:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	store := db.NewStore(database, timeutil.RealClock{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := dispatch(ctx, w, store, args); err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
	w.Flush()
}

func dispatch(ctx context.Context, w io.Writer, store *db.Store, args []string) error {
	switch args[0] {
	case "sweeps":
		sweeps, err := store.ListSweeps(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SWEEP\tSTATUS\tRUNS\tSTARTED\tERROR")
		for _, s := range sweeps {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.SweepID, s.Status, s.TotalRuns, s.StartedAt.Format(time.RFC3339), s.Error)
		}
		return nil

	case "runs":
		if len(args) < 2 {
			return fmt.Errorf("usage: runs <sweep-id>")
		}
		runs, err := store.ListRuns(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "INDEX\tFLOW\tMAX FLOW\tCOLLISIONS")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\n", r.RunIndex, r.FlowRate, r.MaxFlowRate, r.Collisions)
		}
		return nil

	case "best":
		if len(args) < 2 {
			return fmt.Errorf("usage: best <sweep-id>")
		}
		best, err := store.BestRun(ctx, args[1])
		if err != nil {
			return err
		}
		rec := best.Record()
		fmt.Fprintf(w, "run\t%d\nflow rate\t%.6f\nmax flow rate\t%.6f\ncollisions\t%.6f\n",
			rec.Index, rec.Result.FlowRate, rec.Result.MaxFlowRate, rec.Result.Collisions)
		cfg, err := json.Marshal(rec.Config)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "config\t%s\n", cfg)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}
