// Package sweep expands parameter ranges into run configurations, executes
// them in parallel and persists one record per run.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxValues caps how many values a single range may expand to.
const maxValues = 10000

// RangeSpec defines a floating-point parameter range for sweeping.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// IntRangeSpec defines an integer parameter range for sweeping.
type IntRangeSpec struct {
	Min  int
	Max  int
	Step int
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	vals := make([]float64, 3)
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// ParseIntRangeSpec parses a "min:max:step" string into an IntRangeSpec.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return IntRangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	vals := make([]int, 3)
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return IntRangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return IntRangeSpec{}, fmt.Errorf("step must be positive, got %d", vals[2])
	}
	return IntRangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// GenerateRange generates values from min to max (inclusive) stepping by
// step. Returns nil for an empty or oversized range.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	expectedCount := int((max-min)/step) + 1
	if expectedCount > maxValues || expectedCount < 0 {
		return nil
	}

	var result []float64
	for i := 0; i < maxValues; i++ {
		// Multiply rather than accumulate so long ranges do not drift.
		v := math.Round((min+float64(i)*step)*1e6) / 1e6
		if v > max+step/1000 {
			break
		}
		result = append(result, math.Min(v, max))
	}
	return result
}

// GenerateIntRange generates values from min to max (inclusive) stepping by
// step. Returns nil for an empty or oversized range.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	if (max-min)/step+1 > maxValues {
		return nil
	}

	var result []int
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}

	step := (end - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// ParseParamList parses a comma-separated list of floats or a range
// specification. A colon marks a "min:max:step" range.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVFloat64s(s)
}

// ParseIntParamList is ParseParamList for integer parameters.
func ParseIntParamList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseIntRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateIntRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVInts(s)
}
