package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/ringroad/internal/traffic"
)

// Fixed model constants applied when baking a RunConfig.
const (
	CarLength = 1.0
	TickDt    = 1.0
)

// RunConfig is the user-facing description of one simulation run. The JSON
// schema matches the "config" object written in each sim-<i>.json record.
type RunConfig struct {
	RoadLength        float64                   `json:"road_length"`
	NumLanes          int                       `json:"num_lanes"`
	CarDensity        float64                   `json:"car_density"` // cars per unit length per lane
	AccelerationRate  float64                   `json:"acceleration_rate"`
	BrakeRate         float64                   `json:"brake_rate"`
	MaxMovement       float64                   `json:"max_movement"`
	ViewWidth         int                       `json:"view_width"`
	RandomStopRate    float64                   `json:"random_stop_rate"`
	CurrentLaneBias   float64                   `json:"current_lane_bias"`
	StepsToRun        int                       `json:"steps_to_run"`
	LaneScoreStrategy traffic.LaneScoreStrategy `json:"lane_score_strategy"`
	Seed              uint64                    `json:"seed,omitempty"` // 0 picks a random seed
}

// DefaultRunConfig returns the reference parameter set.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		RoadLength:        200,
		NumLanes:          10,
		CarDensity:        0.05,
		AccelerationRate:  0.001,
		BrakeRate:         0.01,
		MaxMovement:       0.2,
		ViewWidth:         1,
		RandomStopRate:    0.0001,
		CurrentLaneBias:   0.1,
		StepsToRun:        100000,
		LaneScoreStrategy: traffic.LaneScoreBidirectional,
	}
}

// LoadRunConfig reads a JSON run configuration. Fields absent from the file
// keep their DefaultRunConfig values; unknown fields are rejected.
func LoadRunConfig(path string) (RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return RunConfig{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return RunConfig{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseRunConfig(data)
	if err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// ParseRunConfig decodes JSON onto the defaults and validates the result.
func ParseRunConfig(data []byte) (RunConfig, error) {
	cfg := DefaultRunConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the user-facing ranges and that the baked configuration
// is usable by the simulator.
func (c RunConfig) Validate() error {
	if c.CarDensity < 0 {
		return fmt.Errorf("car_density must not be negative, got %v", c.CarDensity)
	}
	if c.AccelerationRate <= 0 {
		return fmt.Errorf("acceleration_rate must be positive, got %v", c.AccelerationRate)
	}
	if c.BrakeRate <= 0 {
		return fmt.Errorf("brake_rate must be positive, got %v", c.BrakeRate)
	}
	if c.StepsToRun < 0 {
		return fmt.Errorf("steps_to_run must not be negative, got %d", c.StepsToRun)
	}
	return c.Bake().Validate()
}

// Bake converts the user-facing parameters into the simulator's Config.
func (c RunConfig) Bake() traffic.Config {
	strategy := c.LaneScoreStrategy
	if strategy == "" {
		strategy = traffic.LaneScoreBidirectional
	}
	return traffic.Config{
		RoadLength:        c.RoadLength,
		CarLength:         CarLength,
		NumCars:           int(c.CarDensity * c.RoadLength * float64(c.NumLanes)),
		NumLanes:          c.NumLanes,
		MaxVelocity:       c.MaxMovement,
		MaxAcceleration:   c.MaxMovement * c.AccelerationRate,
		MaxDeceleration:   c.MaxMovement * c.BrakeRate,
		ViewWidth:         c.ViewWidth,
		RandomStopRate:    c.RandomStopRate,
		Dt:                TickDt,
		CurrentLaneBias:   c.CurrentLaneBias,
		LaneScoreStrategy: strategy,
	}
}

// FieldNames lists the settable parameters by JSON name.
func FieldNames() []string {
	return []string{
		"road_length", "num_lanes", "car_density", "acceleration_rate",
		"brake_rate", "max_movement", "view_width", "random_stop_rate",
		"current_lane_bias", "steps_to_run", "lane_score_strategy", "seed",
	}
}

// FieldType reports the value type of a parameter: "float64", "int",
// "uint64" or "string". Unknown names return "".
func FieldType(name string) string {
	switch name {
	case "road_length", "car_density", "acceleration_rate", "brake_rate",
		"max_movement", "random_stop_rate", "current_lane_bias":
		return "float64"
	case "num_lanes", "view_width", "steps_to_run":
		return "int"
	case "seed":
		return "uint64"
	case "lane_score_strategy":
		return "string"
	}
	return ""
}

// Set assigns a parameter by JSON name. Numeric strings are parsed, so the
// same call serves sweep combinations and environment overrides.
func (c *RunConfig) Set(name string, value interface{}) error {
	switch FieldType(name) {
	case "float64":
		f, err := toFloat64(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		switch name {
		case "road_length":
			c.RoadLength = f
		case "car_density":
			c.CarDensity = f
		case "acceleration_rate":
			c.AccelerationRate = f
		case "brake_rate":
			c.BrakeRate = f
		case "max_movement":
			c.MaxMovement = f
		case "random_stop_rate":
			c.RandomStopRate = f
		case "current_lane_bias":
			c.CurrentLaneBias = f
		}
	case "int":
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		switch name {
		case "num_lanes":
			c.NumLanes = n
		case "view_width":
			c.ViewWidth = n
		case "steps_to_run":
			c.StepsToRun = n
		}
	case "uint64":
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if n < 0 {
			return fmt.Errorf("%s: must not be negative", name)
		}
		c.Seed = uint64(n)
	case "string":
		s, err := traffic.ParseLaneScoreStrategy(fmt.Sprint(value))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		c.LaneScoreStrategy = s
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// Get returns a parameter by JSON name.
func (c RunConfig) Get(name string) (interface{}, error) {
	switch name {
	case "road_length":
		return c.RoadLength, nil
	case "num_lanes":
		return c.NumLanes, nil
	case "car_density":
		return c.CarDensity, nil
	case "acceleration_rate":
		return c.AccelerationRate, nil
	case "brake_rate":
		return c.BrakeRate, nil
	case "max_movement":
		return c.MaxMovement, nil
	case "view_width":
		return c.ViewWidth, nil
	case "random_stop_rate":
		return c.RandomStopRate, nil
	case "current_lane_bias":
		return c.CurrentLaneBias, nil
	case "steps_to_run":
		return c.StepsToRun, nil
	case "lane_score_strategy":
		return string(c.LaneScoreStrategy), nil
	case "seed":
		return c.Seed, nil
	}
	return nil, fmt.Errorf("unknown parameter %q", name)
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float %q", val)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot use %T as float", v)
}

func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("%v is not a whole number", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid int %q", val)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot use %T as int", v)
}
