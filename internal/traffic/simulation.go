package traffic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// StepLog summarises one tick.
type StepLog struct {
	FlowRate   float64 `json:"flow_rate"`
	Collisions int     `json:"collisions"`
	Stops      int     `json:"stops"` // forced stops injected this tick
}

// Simulation owns one fleet on one road. It is not safe for concurrent use.
type Simulation struct {
	cfg      Config
	rng      Rand
	vehicles []Vehicle
	speeds   []float64
	ticks    int
}

// New places cfg.NumCars vehicles uniformly at random on the road.
func New(cfg Config, rng Rand) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}

	vs := make([]Vehicle, cfg.NumCars)
	for i := range vs {
		vs[i] = Vehicle{
			Position: rng.Float64() * (cfg.RoadLength - cfg.CarLength),
			Velocity: rng.Float64() * cfg.MaxVelocity,
			Lane:     rng.IntN(cfg.NumLanes),
		}
	}
	sortByPosition(vs)

	return &Simulation{cfg: cfg, rng: rng, vehicles: vs}, nil
}

// NewWithVehicles builds a simulation from an explicit fleet. NumCars is
// taken from the fleet size.
func NewWithVehicles(cfg Config, rng Rand, vehicles []Vehicle) (*Simulation, error) {
	cfg.NumCars = len(vehicles)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}

	vs := make([]Vehicle, len(vehicles))
	copy(vs, vehicles)
	for i, v := range vs {
		if v.Position < 0 || v.Position >= cfg.RoadLength || math.IsNaN(v.Position) {
			return nil, fmt.Errorf("%w: vehicle %d position %v outside [0, %v)", ErrInvalidConfig, i, v.Position, cfg.RoadLength)
		}
		if v.Velocity < 0 || v.Velocity > cfg.MaxVelocity {
			return nil, fmt.Errorf("%w: vehicle %d velocity %v outside [0, %v]", ErrInvalidConfig, i, v.Velocity, cfg.MaxVelocity)
		}
		if v.Lane < 0 || v.Lane >= cfg.NumLanes {
			return nil, fmt.Errorf("%w: vehicle %d lane %d outside [0, %d)", ErrInvalidConfig, i, v.Lane, cfg.NumLanes)
		}
	}
	sortByPosition(vs)

	return &Simulation{cfg: cfg, rng: rng, vehicles: vs}, nil
}

// Step advances the simulation by one tick: integrate positions and re-sort,
// inject random stops, then update velocity and lane for each vehicle in
// position order.
func (s *Simulation) Step() StepLog {
	var log StepLog

	s.cfg.advance(s.vehicles)
	log.Stops = injectBraking(s.vehicles, float64(len(s.vehicles))*s.cfg.RandomStopRate, s.rng)
	log.Collisions = s.cfg.updateVelocities(s.vehicles)

	if len(s.vehicles) > 0 {
		if len(s.speeds) != len(s.vehicles) {
			s.speeds = make([]float64, len(s.vehicles))
		}
		for i, v := range s.vehicles {
			s.speeds[i] = v.Velocity
		}
		log.FlowRate = floats.Sum(s.speeds) / s.cfg.RoadLength
	}

	s.ticks++
	return log
}

// Vehicles returns a copy of the fleet in position order.
func (s *Simulation) Vehicles() []Vehicle {
	out := make([]Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out
}

// Config returns the configuration the simulation runs under.
func (s *Simulation) Config() Config { return s.cfg }

// Ticks returns how many steps have been taken.
func (s *Simulation) Ticks() int { return s.ticks }

// advance moves every vehicle by v·dt around the ring and restores order.
func (c Config) advance(vs []Vehicle) {
	for i := range vs {
		vs[i].Position = math.Mod(vs[i].Position+vs[i].Velocity*c.Dt, c.RoadLength)
	}
	sortByPosition(vs)
}
