package viewer

import (
	"context"
	"time"

	"github.com/banshee-data/ringroad/internal/monitoring"
	"github.com/banshee-data/ringroad/internal/timeutil"
	"github.com/banshee-data/ringroad/internal/traffic"
)

const (
	DefaultTickInterval = time.Second / 60
	DefaultLogInterval  = time.Second
)

// Publisher receives each rendered frame.
type Publisher interface {
	Publish(Frame) error
}

// LoopConfig controls pacing. Zero values take the defaults.
type LoopConfig struct {
	Clock        timeutil.Clock
	Publisher    Publisher
	TickInterval time.Duration
	LogInterval  time.Duration
}

// Loop drives one simulation in real time. All methods must be called from
// the goroutine that owns the loop.
type Loop struct {
	sim *traffic.Simulation
	cfg LoopConfig

	flowSum float64
	steps   int
}

// NewLoop wraps sim.
func NewLoop(sim *traffic.Simulation, cfg LoopConfig) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = DefaultLogInterval
	}
	return &Loop{sim: sim, cfg: cfg}
}

// Step advances the simulation once and folds its flow rate into the
// running average.
func (l *Loop) Step() traffic.StepLog {
	log := l.sim.Step()
	l.flowSum += log.FlowRate
	l.steps++
	return log
}

// Warmup runs n steps without publishing.
func (l *Loop) Warmup(n int) {
	for i := 0; i < n; i++ {
		l.Step()
	}
}

// AverageFlowRate is the mean flow rate over every step taken so far,
// warmup included.
func (l *Loop) AverageFlowRate() float64 {
	if l.steps == 0 {
		return 0
	}
	return l.flowSum / float64(l.steps)
}

// Frame renders the current state.
func (l *Loop) Frame() Frame {
	f := BuildFrame(l.sim)
	f.AverageFlowRate = l.AverageFlowRate()
	return f
}

// Run steps once per tick until ctx is done. Once more than LogInterval has
// passed since the last report, the running average flow rate is logged.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.cfg.Clock.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	lastLog := l.cfg.Clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			l.Step()
			if l.cfg.Clock.Since(lastLog) > l.cfg.LogInterval {
				lastLog = l.cfg.Clock.Now()
				monitoring.Logf("[viewer] tick %d average flow rate %.6f", l.sim.Ticks(), l.AverageFlowRate())
			}
			if l.cfg.Publisher == nil {
				continue
			}
			if err := l.cfg.Publisher.Publish(l.Frame()); err != nil {
				monitoring.Logf("[viewer] publish failed: %v", err)
			}
		}
	}
}
