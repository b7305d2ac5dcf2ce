package sweep

import (
	"context"

	"github.com/samber/lo"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/traffic"
)

// ctxCheckInterval is how many ticks run between cancellation checks.
const ctxCheckInterval = 1024

// Result holds the averaged metrics of one run.
type Result struct {
	FlowRate    float64 `json:"flow_rate"`
	MaxFlowRate float64 `json:"max_flow_rate"`
	Collisions  float64 `json:"collisions"` // mean collisions per tick
}

// Record is one run as persisted to sim-<i>.json.
type Record struct {
	Index  int              `json:"-"`
	Config config.RunConfig `json:"config"`
	Result Result           `json:"result"`
}

// MaxFlowRate estimates the best achievable flow for a baked configuration:
// every vehicle at full speed, less the time lost recovering from forced
// stops.
func MaxFlowRate(c traffic.Config) float64 {
	stopLoss := c.RandomStopRate * c.MaxVelocity / c.MaxAcceleration / c.Dt / 2
	return c.MaxVelocity * float64(c.NumCars) * (1 - stopLoss) / c.RoadLength
}

// RunSimulation bakes rc, runs it for rc.StepsToRun ticks and returns the
// per-tick averages. A run of zero ticks reports zero flow and collisions.
func RunSimulation(ctx context.Context, rc config.RunConfig, rng traffic.Rand) (Result, error) {
	cfg := rc.Bake()
	sim, err := traffic.New(cfg, rng)
	if err != nil {
		return Result{}, err
	}

	res := Result{MaxFlowRate: MaxFlowRate(cfg)}
	if rc.StepsToRun == 0 {
		return res, nil
	}

	var flowSum float64
	var collisionSum int
	for i := 0; i < rc.StepsToRun; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		log := sim.Step()
		flowSum += log.FlowRate
		collisionSum += log.Collisions
	}

	n := float64(rc.StepsToRun)
	res.FlowRate = flowSum / n
	res.Collisions = float64(collisionSum) / n
	return res, nil
}

// Best returns the record with the highest average flow rate. On ties the
// earliest record wins.
func Best(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	return lo.MaxBy(records, func(a, b Record) bool {
		return a.Result.FlowRate > b.Result.FlowRate
	}), true
}
