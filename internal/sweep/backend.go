package sweep

import (
	"context"
	"math/rand/v2"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/traffic"
)

// Backend executes single runs on behalf of the Runner. LocalBackend runs
// them in-process; tests substitute their own.
type Backend interface {
	Run(ctx context.Context, index int, cfg config.RunConfig) (Result, error)
}

// LocalBackend runs simulations in the calling goroutine.
type LocalBackend struct {
	// BaseSeed, when non-zero, makes run i use seed BaseSeed+i unless the
	// run config carries its own seed.
	BaseSeed uint64
}

// Run implements Backend.
func (b LocalBackend) Run(ctx context.Context, index int, cfg config.RunConfig) (Result, error) {
	return RunSimulation(ctx, cfg, traffic.NewRand(b.seedFor(index, cfg)))
}

func (b LocalBackend) seedFor(index int, cfg config.RunConfig) uint64 {
	switch {
	case cfg.Seed != 0:
		return cfg.Seed
	case b.BaseSeed != 0:
		return b.BaseSeed + uint64(index)
	}
	return rand.Uint64()
}
