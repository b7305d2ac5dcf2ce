package db

import (
	"fmt"
	"io"
	"strconv"
)

// RunMigrateCommand executes a 'migrate' subcommand against database and
// reports progress to w.
func RunMigrateCommand(w io.Writer, database *DB, args []string) error {
	if len(args) < 1 {
		PrintMigrateHelp(w)
		return fmt.Errorf("missing migrate action")
	}

	switch action := args[0]; action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ All migrations applied")
		return printVersion(w, database)

	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ Rolled back one migration")
		return printVersion(w, database)

	case "status":
		return printVersion(w, database)

	case "version":
		n, err := versionArg(args)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative, got %d", n)
		}
		if err := database.MigrateTo(uint(n)); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Migrated to version %d\n", n)
		return nil

	case "force":
		n, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := database.MigrateForce(n); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Migration version forced to %d\n", n)
		return nil

	case "help":
		PrintMigrateHelp(w)
		return nil

	default:
		PrintMigrateHelp(w)
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

func versionArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: migrate %s <version>", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid version number %q", args[1])
	}
	return n, nil
}

func printVersion(w io.Writer, database *DB) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	fmt.Fprintf(w, "Current version: %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Fprintln(w, "⚠️  A migration failed mid-execution; fix the schema and run: migrate force <version>")
	}
	return nil
}

// PrintMigrateHelp writes usage for the migrate subcommand.
func PrintMigrateHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: catalog [-db path] migrate <command>

Commands:
  up              Apply all pending migrations
  down            Roll back one migration
  status          Show current version
  version <N>     Migrate to version N
  force <N>       Force the recorded version to N (recovery only)
  help            Show this help message
`)
}
