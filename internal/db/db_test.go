package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ringroad.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected clean version 2, got %d (dirty=%v)", version, dirty)
	}

	// Re-running is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Errorf("Second MigrateUp failed: %v", err)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, _, err = db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1 after rollback, got %d", version)
	}
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp after rollback failed: %v", err)
	}
}

func TestOpenNoMigrateLeavesSchemaEmpty(t *testing.T) {
	db, err := OpenNoMigrate(filepath.Join(t.TempDir(), "bare.db"))
	if err != nil {
		t.Fatalf("OpenNoMigrate failed: %v", err)
	}
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Expected no version, got %d (dirty=%v)", version, dirty)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	busy := errors.New("database is locked (5) (SQLITE_BUSY)")

	t.Run("success after retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("got err=%v calls=%d, want nil and 3", err, calls)
		}
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		other := errors.New("constraint failed")
		err := retryOnBusy(func() error {
			calls++
			return other
		})
		if err != other || calls != 1 {
			t.Errorf("got err=%v calls=%d, want %v and 1", err, calls, other)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := retryOnBusy(func() error {
			calls++
			return busy
		})
		if !errors.Is(err, busy) {
			t.Errorf("expected wrapped busy error, got %v", err)
		}
		if calls != maxBusyRetries {
			t.Errorf("expected %d calls, got %d", maxBusyRetries, calls)
		}
		// 10 + 20 + 40 + 80 ms of backoff.
		if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
			t.Errorf("expected backoff delays, finished in %v", elapsed)
		}
	})
}
