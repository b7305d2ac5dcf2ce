// Package traffic implements the per-tick vehicle update model for a
// circular multi-lane road: car-following velocity, lookahead lane changes,
// stochastic braking and position integration.
package traffic

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfig is returned (wrapped) when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid traffic config")

// LaneScoreStrategy selects which neighbour gaps contribute to a lane score.
type LaneScoreStrategy string

const (
	// LaneScoreBidirectional scores a lane by both the gap ahead and the gap behind.
	LaneScoreBidirectional LaneScoreStrategy = "bidirectional"
	// LaneScoreForward scores a lane by the gap ahead only.
	LaneScoreForward LaneScoreStrategy = "forward"
	// LaneScoreBackward scores a lane by the gap behind only.
	LaneScoreBackward LaneScoreStrategy = "backward"
)

// ParseLaneScoreStrategy accepts the canonical names as well as the
// long-form aliases (BiDirectional, ForwardLooking, BackwardLooking).
// An empty string yields the bidirectional default.
func ParseLaneScoreStrategy(s string) (LaneScoreStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bidirectional", "bi_directional", "bi-directional":
		return LaneScoreBidirectional, nil
	case "forward", "forwardlooking", "forward_looking":
		return LaneScoreForward, nil
	case "backward", "backwardlooking", "backward_looking":
		return LaneScoreBackward, nil
	}
	return "", fmt.Errorf("unknown lane score strategy %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so JSON configs may use
// any accepted alias.
func (s *LaneScoreStrategy) UnmarshalText(b []byte) error {
	parsed, err := ParseLaneScoreStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Config is the baked, immutable per-run configuration.
type Config struct {
	RoadLength        float64           `json:"road_length"`
	CarLength         float64           `json:"car_length"`
	NumCars           int               `json:"num_cars"`
	NumLanes          int               `json:"num_lanes"`
	MaxVelocity       float64           `json:"max_velocity"`
	MaxAcceleration   float64           `json:"max_acceleration"`
	MaxDeceleration   float64           `json:"max_deceleration"`
	ViewWidth         int               `json:"view_width"` // max lanes scanned per lateral scan
	RandomStopRate    float64           `json:"random_stop_rate"`
	Dt                float64           `json:"dt"`
	CurrentLaneBias   float64           `json:"current_lane_bias"`
	LaneScoreStrategy LaneScoreStrategy `json:"lane_score_strategy"`
}

// Validate checks that the configuration can drive a simulation without
// producing out-of-range state.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"road_length", c.RoadLength},
		{"car_length", c.CarLength},
		{"max_velocity", c.MaxVelocity},
		{"max_acceleration", c.MaxAcceleration},
		{"max_deceleration", c.MaxDeceleration},
		{"dt", c.Dt},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, p.name, p.v)
		}
	}
	if c.CarLength >= c.RoadLength {
		return fmt.Errorf("%w: car_length %v must be less than road_length %v", ErrInvalidConfig, c.CarLength, c.RoadLength)
	}
	if c.NumLanes < 1 {
		return fmt.Errorf("%w: num_lanes must be at least 1, got %d", ErrInvalidConfig, c.NumLanes)
	}
	if c.NumCars < 0 {
		return fmt.Errorf("%w: num_cars must not be negative, got %d", ErrInvalidConfig, c.NumCars)
	}
	if c.ViewWidth < 0 {
		return fmt.Errorf("%w: view_width must not be negative, got %d", ErrInvalidConfig, c.ViewWidth)
	}
	if c.RandomStopRate < 0 || math.IsNaN(c.RandomStopRate) || math.IsInf(c.RandomStopRate, 0) {
		return fmt.Errorf("%w: random_stop_rate must be non-negative, got %v", ErrInvalidConfig, c.RandomStopRate)
	}
	if math.IsNaN(c.CurrentLaneBias) || math.IsInf(c.CurrentLaneBias, 0) {
		return fmt.Errorf("%w: current_lane_bias must be finite", ErrInvalidConfig)
	}
	if _, err := ParseLaneScoreStrategy(string(c.LaneScoreStrategy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
