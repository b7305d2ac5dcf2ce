package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/sweep"
	"github.com/banshee-data/ringroad/internal/timeutil"
)

// ErrNotFound is returned when a sweep or run does not exist.
var ErrNotFound = errors.New("not found")

// SweepRecord is one row of the sweeps table.
type SweepRecord struct {
	SweepID     string          `json:"sweep_id"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	TotalRuns   int             `json:"total_runs"`
	Status      string          `json:"status"`
	Request     json.RawMessage `json:"request"`
	Error       string          `json:"error,omitempty"`
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID       string           `json:"run_id"`
	SweepID     string           `json:"sweep_id"`
	RunIndex    int              `json:"run_index"`
	Config      config.RunConfig `json:"config"`
	FlowRate    float64          `json:"flow_rate"`
	MaxFlowRate float64          `json:"max_flow_rate"`
	Collisions  float64          `json:"collisions"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Record converts the row back into a sweep record.
func (r RunRecord) Record() sweep.Record {
	return sweep.Record{
		Index:  r.RunIndex,
		Config: r.Config,
		Result: sweep.Result{FlowRate: r.FlowRate, MaxFlowRate: r.MaxFlowRate, Collisions: r.Collisions},
	}
}

// Store persists sweeps and runs. It implements sweep.ResultSink.
type Store struct {
	db    *DB
	clock timeutil.Clock
}

// NewStore creates a Store on db. A nil clock uses the wall clock.
func NewStore(db *DB, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{db: db, clock: clock}
}

var _ sweep.ResultSink = (*Store)(nil)

// CreateSweep inserts a running sweep.
func (s *Store) CreateSweep(ctx context.Context, sweepID string, totalRuns int, request json.RawMessage) error {
	query := `
		INSERT INTO sweeps (sweep_id, started_at, total_runs, status, request_json)
		VALUES (?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, query,
			sweepID,
			formatTime(s.clock.Now()),
			totalRuns,
			string(sweep.SweepStatusRunning),
			string(request),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting sweep %s: %w", sweepID, err)
	}
	return nil
}

// CompleteSweep records the final status of a sweep.
func (s *Store) CompleteSweep(ctx context.Context, sweepID, status, errMsg string) error {
	query := `UPDATE sweeps SET status = ?, completed_at = ?, error = ? WHERE sweep_id = ?`
	var affected int64
	err := retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, query, status, formatTime(s.clock.Now()), nullStr(errMsg), sweepID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("completing sweep %s: %w", sweepID, err)
	}
	if affected == 0 {
		return fmt.Errorf("sweep %s: %w", sweepID, ErrNotFound)
	}
	return nil
}

// InsertRun stores one run and returns its generated ID.
func (s *Store) InsertRun(ctx context.Context, sweepID string, rec sweep.Record) (string, error) {
	cfgJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return "", fmt.Errorf("encoding run config: %w", err)
	}

	runID := uuid.New().String()
	query := `
		INSERT INTO runs (
			run_id, sweep_id, run_index, config_json,
			flow_rate, max_flow_rate, collisions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, query,
			runID,
			sweepID,
			rec.Index,
			string(cfgJSON),
			rec.Result.FlowRate,
			rec.Result.MaxFlowRate,
			rec.Result.Collisions,
			formatTime(s.clock.Now()),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("inserting run %d of sweep %s: %w", rec.Index, sweepID, err)
	}
	return runID, nil
}

// GetSweep returns a single sweep by ID.
func (s *Store) GetSweep(ctx context.Context, sweepID string) (*SweepRecord, error) {
	query := `
		SELECT sweep_id, started_at, completed_at, total_runs, status, request_json, error
		FROM sweeps
		WHERE sweep_id = ?
	`
	row := s.db.QueryRowContext(ctx, query, sweepID)
	rec, err := scanSweep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sweep %s: %w", sweepID, ErrNotFound)
	}
	return rec, err
}

// ListSweeps returns every sweep, most recent first.
func (s *Store) ListSweeps(ctx context.Context) ([]SweepRecord, error) {
	query := `
		SELECT sweep_id, started_at, completed_at, total_runs, status, request_json, error
		FROM sweeps
		ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing sweeps: %w", err)
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		rec, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListRuns returns the runs of a sweep in run order.
func (s *Store) ListRuns(ctx context.Context, sweepID string) ([]RunRecord, error) {
	query := `
		SELECT run_id, sweep_id, run_index, config_json, flow_rate, max_flow_rate, collisions, created_at
		FROM runs
		WHERE sweep_id = ?
		ORDER BY run_index
	`
	rows, err := s.db.QueryContext(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("listing runs for %s: %w", sweepID, err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// BestRun returns the run of a sweep with the highest flow rate. Ties go to
// the lowest run index.
func (s *Store) BestRun(ctx context.Context, sweepID string) (*RunRecord, error) {
	query := `
		SELECT run_id, sweep_id, run_index, config_json, flow_rate, max_flow_rate, collisions, created_at
		FROM runs
		WHERE sweep_id = ?
		ORDER BY flow_rate DESC, run_index ASC
		LIMIT 1
	`
	rec, err := scanRun(s.db.QueryRowContext(ctx, query, sweepID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("runs of sweep %s: %w", sweepID, ErrNotFound)
	}
	return rec, err
}

// BeginSweep implements sweep.ResultSink.
func (s *Store) BeginSweep(ctx context.Context, sweepID string, req sweep.Request, totalRuns int) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding sweep request: %w", err)
	}
	return s.CreateSweep(ctx, sweepID, totalRuns, data)
}

// RecordRun implements sweep.ResultSink.
func (s *Store) RecordRun(ctx context.Context, sweepID string, rec sweep.Record) error {
	_, err := s.InsertRun(ctx, sweepID, rec)
	return err
}

// EndSweep implements sweep.ResultSink.
func (s *Store) EndSweep(ctx context.Context, sweepID string, status sweep.SweepStatus, errMsg string) error {
	return s.CompleteSweep(ctx, sweepID, string(status), errMsg)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSweep(sc scanner) (*SweepRecord, error) {
	var (
		rec         SweepRecord
		startedAt   string
		completedAt sql.NullString
		request     string
		errMsg      sql.NullString
	)
	if err := sc.Scan(&rec.SweepID, &startedAt, &completedAt, &rec.TotalRuns, &rec.Status, &request, &errMsg); err != nil {
		return nil, err
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("sweep %s started_at: %w", rec.SweepID, err)
	}
	rec.StartedAt = t
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("sweep %s completed_at: %w", rec.SweepID, err)
		}
		rec.CompletedAt = &t
	}
	rec.Request = json.RawMessage(request)
	rec.Error = errMsg.String
	return &rec, nil
}

func scanRun(sc scanner) (*RunRecord, error) {
	var (
		rec       RunRecord
		cfgJSON   string
		createdAt string
	)
	if err := sc.Scan(&rec.RunID, &rec.SweepID, &rec.RunIndex, &cfgJSON,
		&rec.FlowRate, &rec.MaxFlowRate, &rec.Collisions, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfgJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("run %s config: %w", rec.RunID, err)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %s created_at: %w", rec.RunID, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}
