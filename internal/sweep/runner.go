package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/monitoring"
	"github.com/banshee-data/ringroad/internal/timeutil"
)

// SweepStatus represents the current state of a sweep run
type SweepStatus string

const (
	SweepStatusIdle     SweepStatus = "idle"
	SweepStatusRunning  SweepStatus = "running"
	SweepStatusComplete SweepStatus = "complete"
	SweepStatusError    SweepStatus = "error"
)

// Request defines the parameters for starting a sweep.
type Request struct {
	Base     config.RunConfig `json:"base"`
	Params   []SweepParam     `json:"params,omitempty"`
	Parallel int              `json:"parallel,omitempty"` // 0 uses GOMAXPROCS
}

// Summary aggregates the flow rates of every completed run.
type Summary struct {
	FlowMean       float64 `json:"flow_mean"`
	FlowStddev     float64 `json:"flow_stddev"`
	CollisionsMean float64 `json:"collisions_mean"`
}

// SweepState holds the current state and results of a sweep
type SweepState struct {
	SweepID       string      `json:"sweep_id,omitempty"`
	Status        SweepStatus `json:"status"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	TotalRuns     int         `json:"total_runs"`
	CompletedRuns int         `json:"completed_runs"`
	FailedRuns    int         `json:"failed_runs"`
	Results       []Record    `json:"results"`
	Best          *Record     `json:"best,omitempty"`
	Summary       *Summary    `json:"summary,omitempty"`
	Error         string      `json:"error,omitempty"`
	Warnings      []string    `json:"warnings,omitempty"`
	Request       *Request    `json:"request,omitempty"`
}

// ResultSink catalogues sweeps as they run. The SQLite store implements it.
type ResultSink interface {
	BeginSweep(ctx context.Context, sweepID string, req Request, totalRuns int) error
	RecordRun(ctx context.Context, sweepID string, rec Record) error
	EndSweep(ctx context.Context, sweepID string, status SweepStatus, errMsg string) error
}

// RunnerConfig wires a Runner. Only Backend is required.
type RunnerConfig struct {
	Backend Backend
	Output  *OutputWriter
	Sink    ResultSink
	Clock   timeutil.Clock
}

// Runner orchestrates parameter sweeps
type Runner struct {
	backend Backend
	output  *OutputWriter
	sink    ResultSink
	clock   timeutil.Clock

	mu     sync.RWMutex
	state  SweepState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a new sweep runner
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Backend == nil {
		cfg.Backend = LocalBackend{}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Runner{
		backend: cfg.Backend,
		output:  cfg.Output,
		sink:    cfg.Sink,
		clock:   cfg.Clock,
		state:   SweepState{Status: SweepStatusIdle},
	}
}

// addWarning appends a warning message to the sweep state.
func (r *Runner) addWarning(msg string) {
	monitoring.Logf("[sweep] WARNING: %s", msg)
	r.mu.Lock()
	r.state.Warnings = append(r.state.Warnings, msg)
	r.mu.Unlock()
}

// GetSweepState returns a copy of the current sweep state.
func (r *Runner) GetSweepState() SweepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := r.state
	state.Results = append([]Record(nil), r.state.Results...)
	state.Warnings = append([]string(nil), r.state.Warnings...)
	return state
}

// Start expands req into run configurations and begins executing them in
// the background. It fails if a sweep is already running or req expands to
// nothing runnable.
func (r *Runner) Start(ctx context.Context, req Request) error {
	configs, err := BuildConfigs(req.Base, req.Params)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return fmt.Errorf("no parameter combinations to sweep")
	}
	if req.Parallel <= 0 {
		req.Parallel = runtime.GOMAXPROCS(0)
	}

	r.mu.Lock()
	if r.state.Status == SweepStatusRunning {
		r.mu.Unlock()
		return fmt.Errorf("sweep already in progress")
	}

	if r.output != nil {
		if err := r.output.Prepare(); err != nil {
			r.mu.Unlock()
			return err
		}
	}

	sweepID := uuid.New().String()
	if r.sink != nil {
		if err := r.sink.BeginSweep(ctx, sweepID, req, len(configs)); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("recording sweep start: %w", err)
		}
	}

	now := r.clock.Now()
	r.state = SweepState{
		SweepID:   sweepID,
		Status:    SweepStatusRunning,
		StartedAt: &now,
		TotalRuns: len(configs),
		Results:   make([]Record, 0, len(configs)),
		Request:   &req,
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	monitoring.WithFields(map[string]interface{}{
		"sweep_id": sweepID,
		"runs":     len(configs),
		"parallel": req.Parallel,
	}).Info("[sweep] starting")

	go func() {
		defer close(done)
		defer cancel()
		r.run(sweepCtx, sweepID, configs, req.Parallel)
	}()
	return nil
}

// Stop cancels a running sweep
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Wait blocks until the current sweep finishes and returns its final state.
// It returns immediately when no sweep has been started.
func (r *Runner) Wait() SweepState {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done != nil {
		<-done
	}
	return r.GetSweepState()
}

func (r *Runner) run(ctx context.Context, sweepID string, configs []config.RunConfig, parallel int) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(parallel, len(configs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.runOne(ctx, sweepID, i, configs[i])
			}
		}()
	}

feed:
	for i := range configs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	r.finish(ctx, sweepID)
}

func (r *Runner) runOne(ctx context.Context, sweepID string, index int, cfg config.RunConfig) {
	res, err := r.backend.Run(ctx, index, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.mu.Lock()
		r.state.FailedRuns++
		r.mu.Unlock()
		r.addWarning(fmt.Sprintf("run %d failed: %v", index, err))
		return
	}

	rec := Record{Index: index, Config: cfg, Result: res}
	if r.output != nil {
		if err := r.output.WriteRecord(rec); err != nil {
			r.addWarning(err.Error())
		}
	}
	if r.sink != nil {
		if err := r.sink.RecordRun(ctx, sweepID, rec); err != nil {
			r.addWarning(fmt.Sprintf("cataloguing run %d: %v", index, err))
		}
	}

	r.mu.Lock()
	r.state.Results = append(r.state.Results, rec)
	r.state.CompletedRuns++
	done, total := r.state.CompletedRuns+r.state.FailedRuns, r.state.TotalRuns
	r.mu.Unlock()

	monitoring.Logf("[sweep] %d/%d", done, total)
}

func (r *Runner) finish(ctx context.Context, sweepID string) {
	r.mu.Lock()
	sort.Slice(r.state.Results, func(i, j int) bool {
		return r.state.Results[i].Index < r.state.Results[j].Index
	})
	results := append([]Record(nil), r.state.Results...)
	total := r.state.TotalRuns
	r.mu.Unlock()

	status := SweepStatusComplete
	var errMsg string
	if err := ctx.Err(); err != nil {
		status = SweepStatusError
		errMsg = fmt.Sprintf("sweep stopped after %d/%d runs: %v", len(results), total, err)
	}

	if r.output != nil && len(results) > 0 {
		if err := r.output.WriteSummary(results); err != nil {
			r.addWarning(err.Error())
		}
	}
	if r.sink != nil {
		// The sweep context may already be cancelled; the catalogue still
		// needs its final status.
		if err := r.sink.EndSweep(context.WithoutCancel(ctx), sweepID, status, errMsg); err != nil {
			r.addWarning(fmt.Sprintf("recording sweep end: %v", err))
		}
	}

	summary := Summarise(results)
	best, ok := Best(results)

	r.mu.Lock()
	r.state.Status = status
	r.state.Error = errMsg
	now := r.clock.Now()
	r.state.CompletedAt = &now
	r.state.Summary = &summary
	if ok {
		r.state.Best = &best
	}
	r.mu.Unlock()

	monitoring.WithFields(map[string]interface{}{
		"sweep_id":  sweepID,
		"status":    status,
		"runs":      len(results),
		"flow_mean": summary.FlowMean,
	}).Info("[sweep] finished")
}

// Summarise computes the mean and spread of flow rate and mean collisions.
func Summarise(records []Record) Summary {
	flows := lo.Map(records, func(r Record, _ int) float64 { return r.Result.FlowRate })
	collisions := lo.Map(records, func(r Record, _ int) float64 { return r.Result.Collisions })
	var s Summary
	s.FlowMean, s.FlowStddev = MeanStddev(flows)
	s.CollisionsMean, _ = MeanStddev(collisions)
	return s
}
