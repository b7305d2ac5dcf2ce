package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/ringroad/internal/config"
)

// maxCombos is the hard limit on the number of runs one sweep may expand to.
const maxCombos = 10000

// SweepParam defines one parameter dimension to sweep.
type SweepParam struct {
	Name   string        `json:"name"`             // run config key e.g. "car_density"
	Type   string        `json:"type,omitempty"`   // "float64", "int", "uint64", "string"; inferred when empty
	Values []interface{} `json:"values,omitempty"` // explicit values

	// Range fields. With Count set the range is Count evenly spaced points
	// from Start to End; otherwise it steps by Step.
	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`
	Step  float64 `json:"step,omitempty"`
	Count int     `json:"count,omitempty"`
}

// ParseSweepParam parses a command-line parameter of the form name=spec.
// The spec is a comma list ("0.1,0.2"), a stepped range ("0.1:0.5:0.1") or
// an evenly spaced range ("lin:0.005:0.02:40").
func ParseSweepParam(s string) (SweepParam, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	spec = strings.TrimSpace(spec)
	if !ok || name == "" || spec == "" {
		return SweepParam{}, fmt.Errorf("invalid sweep parameter %q: expected name=values", s)
	}
	typ := config.FieldType(name)
	if typ == "" {
		return SweepParam{}, fmt.Errorf("unknown parameter %q", name)
	}
	sp := SweepParam{Name: name, Type: typ}

	if rest, ok := strings.CutPrefix(spec, "lin:"); ok {
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return SweepParam{}, fmt.Errorf("invalid linspace %q: expected lin:start:end:count", spec)
		}
		start, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		end, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		count, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil || count <= 0 {
			return SweepParam{}, fmt.Errorf("invalid linspace %q", spec)
		}
		sp.Start, sp.End, sp.Count = start, end, count
		return sp, nil
	}

	if typ == "string" {
		for _, v := range strings.Split(spec, ",") {
			if v = strings.TrimSpace(v); v != "" {
				sp.Values = append(sp.Values, v)
			}
		}
		return sp, nil
	}

	if typ == "float64" {
		vals, err := ParseParamList(spec)
		if err != nil {
			return SweepParam{}, fmt.Errorf("%s: %w", name, err)
		}
		for _, v := range vals {
			sp.Values = append(sp.Values, v)
		}
	} else {
		vals, err := ParseIntParamList(spec)
		if err != nil {
			return SweepParam{}, fmt.Errorf("%s: %w", name, err)
		}
		for _, v := range vals {
			sp.Values = append(sp.Values, v)
		}
	}
	if len(sp.Values) == 0 {
		return SweepParam{}, fmt.Errorf("%s: range %q is empty", name, spec)
	}
	return sp, nil
}

// expandSweepParam expands sweep param range into values.
func expandSweepParam(sp *SweepParam) error {
	if sp.Type == "" {
		sp.Type = config.FieldType(sp.Name)
		if sp.Type == "" {
			return fmt.Errorf("unknown parameter %q", sp.Name)
		}
	}

	if len(sp.Values) > 0 {
		for i, v := range sp.Values {
			coerced, err := coerceValue(v, sp.Type)
			if err != nil {
				return fmt.Errorf("value[%d]: %w", i, err)
			}
			sp.Values[i] = coerced
		}
		return nil
	}

	if sp.Count > 0 {
		if sp.Type == "string" {
			return fmt.Errorf("string params require explicit values")
		}
		for _, v := range Linspace(sp.Start, sp.End, sp.Count) {
			coerced, err := coerceValue(v, sp.Type)
			if err != nil {
				return err
			}
			sp.Values = append(sp.Values, coerced)
		}
		return nil
	}

	switch sp.Type {
	case "float64":
		if sp.Step <= 0 {
			return fmt.Errorf("step must be positive for float64 range")
		}
		for _, v := range GenerateRange(sp.Start, sp.End, sp.Step) {
			sp.Values = append(sp.Values, v)
		}
	case "int", "uint64":
		if sp.Step <= 0 {
			return fmt.Errorf("step must be positive for %s range", sp.Type)
		}
		for _, v := range GenerateIntRange(int(sp.Start), int(sp.End), int(sp.Step)) {
			sp.Values = append(sp.Values, v)
		}
	case "string":
		return fmt.Errorf("string params require explicit values")
	default:
		return fmt.Errorf("unknown type %q", sp.Type)
	}
	if len(sp.Values) == 0 {
		return fmt.Errorf("range [%v, %v] step %v is empty", sp.Start, sp.End, sp.Step)
	}
	return nil
}

// coerceValue converts a value to the Go type used for the given param type.
// Conversion failures are errors rather than silent zeroes.
func coerceValue(v interface{}, typ string) (interface{}, error) {
	switch typ {
	case "float64":
		switch val := v.(type) {
		case float64:
			return val, nil
		case int:
			return float64(val), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as float64: %w", val, err)
			}
			return f, nil
		}
	case "int", "uint64":
		switch val := v.(type) {
		case int:
			return val, nil
		case float64:
			return int(val), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as int: %w", val, err)
			}
			return n, nil
		}
	case "string":
		switch val := v.(type) {
		case string:
			return strings.TrimSpace(val), nil
		default:
			return fmt.Sprintf("%v", val), nil
		}
	}
	return nil, fmt.Errorf("unsupported coercion: %T to %s", v, typ)
}

// cartesianProduct computes the Cartesian product of all SweepParam value
// lists. The last parameter varies fastest.
func cartesianProduct(params []SweepParam) ([]map[string]interface{}, error) {
	if len(params) == 0 {
		return nil, nil
	}

	total := int64(1)
	for _, p := range params {
		total *= int64(len(p.Values))
		if total > maxCombos || total < 0 {
			return nil, fmt.Errorf("parameter combinations would exceed safe limit of %d", maxCombos)
		}
	}
	if total == 0 {
		return nil, nil
	}

	combos := make([]map[string]interface{}, total)
	for i := range combos {
		combos[i] = make(map[string]interface{}, len(params))
	}

	repeat := int64(1)
	for dim := len(params) - 1; dim >= 0; dim-- {
		vals := params[dim].Values
		name := params[dim].Name
		cycle := int64(len(vals))
		for i := int64(0); i < total; i++ {
			combos[i][name] = vals[(i/repeat)%cycle]
		}
		repeat *= cycle
	}

	return combos, nil
}

// BuildConfigs expands params over base into one validated RunConfig per
// combination. With no params the result is just base.
func BuildConfigs(base config.RunConfig, params []SweepParam) ([]config.RunConfig, error) {
	seen := make(map[string]bool, len(params))
	expanded := make([]SweepParam, len(params))
	for i, p := range params {
		if seen[p.Name] {
			return nil, fmt.Errorf("parameter %q swept twice", p.Name)
		}
		seen[p.Name] = true
		p.Values = append([]interface{}(nil), p.Values...)
		if err := expandSweepParam(&p); err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		expanded[i] = p
	}

	if len(expanded) == 0 {
		if err := base.Validate(); err != nil {
			return nil, err
		}
		return []config.RunConfig{base}, nil
	}

	combos, err := cartesianProduct(expanded)
	if err != nil {
		return nil, err
	}

	configs := make([]config.RunConfig, 0, len(combos))
	for i, combo := range combos {
		cfg := base
		for _, p := range expanded {
			if err := cfg.Set(p.Name, combo[p.Name]); err != nil {
				return nil, fmt.Errorf("combination %d: %w", i, err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("combination %d %v: %w", i, combo, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
