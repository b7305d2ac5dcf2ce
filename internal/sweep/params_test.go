package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/traffic"
)

func TestParseSweepParam(t *testing.T) {
	t.Run("float list", func(t *testing.T) {
		sp, err := ParseSweepParam("car_density=0.02,0.05")
		require.NoError(t, err)
		assert.Equal(t, "float64", sp.Type)
		assert.Equal(t, []interface{}{0.02, 0.05}, sp.Values)
	})

	t.Run("int range", func(t *testing.T) {
		sp, err := ParseSweepParam("num_lanes=1:3:1")
		require.NoError(t, err)
		assert.Equal(t, "int", sp.Type)
		assert.Equal(t, []interface{}{1, 2, 3}, sp.Values)
	})

	t.Run("linspace", func(t *testing.T) {
		sp, err := ParseSweepParam("car_density=lin:0.005:0.02:40")
		require.NoError(t, err)
		assert.Empty(t, sp.Values)
		assert.Equal(t, 40, sp.Count)
		assert.Equal(t, 0.005, sp.Start)
		assert.Equal(t, 0.02, sp.End)
	})

	t.Run("strategies", func(t *testing.T) {
		sp, err := ParseSweepParam("lane_score_strategy=forward, backward")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"forward", "backward"}, sp.Values)
	})

	for _, bad := range []string{
		"car_density",
		"=0.1",
		"colour=1",
		"num_lanes=3:1:1",
		"car_density=lin:0:1",
		"car_density=lin:0:1:0",
		"road_length=short",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseSweepParam(bad)
			assert.Error(t, err)
		})
	}
}

func TestExpandSweepParam(t *testing.T) {
	tests := []struct {
		name    string
		param   SweepParam
		want    []interface{}
		wantErr bool
	}{
		{
			name:  "coerces json numbers to int",
			param: SweepParam{Name: "view_width", Values: []interface{}{1.0, "2"}},
			want:  []interface{}{1, 2},
		},
		{
			name:  "float range",
			param: SweepParam{Name: "road_length", Start: 100, End: 300, Step: 100},
			want:  []interface{}{100.0, 200.0, 300.0},
		},
		{
			name:  "int range",
			param: SweepParam{Name: "steps_to_run", Start: 10, End: 30, Step: 10},
			want:  []interface{}{10, 20, 30},
		},
		{
			name:  "linspace",
			param: SweepParam{Name: "current_lane_bias", Start: 0, End: 1, Count: 3},
			want:  []interface{}{0.0, 0.5, 1.0},
		},
		{name: "unknown name", param: SweepParam{Name: "colour", Values: []interface{}{1}}, wantErr: true},
		{name: "zero step", param: SweepParam{Name: "road_length", Start: 1, End: 2}, wantErr: true},
		{name: "string range", param: SweepParam{Name: "lane_score_strategy", Start: 1, End: 2, Step: 1}, wantErr: true},
		{name: "bad value", param: SweepParam{Name: "brake_rate", Values: []interface{}{"fast"}}, wantErr: true},
		{name: "empty range", param: SweepParam{Name: "road_length", Start: 5, End: 1, Step: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := tt.param
			err := expandSweepParam(&sp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sp.Values)
		})
	}
}

func TestCartesianProduct(t *testing.T) {
	combos, err := cartesianProduct([]SweepParam{
		{Name: "a", Values: []interface{}{1, 2}},
		{Name: "b", Values: []interface{}{"x", "y", "z"}},
	})
	require.NoError(t, err)
	require.Len(t, combos, 6)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": "x"}, combos[0])
	assert.Equal(t, map[string]interface{}{"a": 1, "b": "y"}, combos[1])
	assert.Equal(t, map[string]interface{}{"a": 2, "b": "x"}, combos[3])

	big := make([]interface{}, 200)
	for i := range big {
		big[i] = i
	}
	_, err = cartesianProduct([]SweepParam{{Name: "a", Values: big}, {Name: "b", Values: big}})
	assert.Error(t, err)

	combos, err = cartesianProduct(nil)
	assert.NoError(t, err)
	assert.Nil(t, combos)
}

func TestBuildConfigs(t *testing.T) {
	base := config.DefaultRunConfig()
	base.StepsToRun = 10

	t.Run("no params yields the base", func(t *testing.T) {
		cfgs, err := BuildConfigs(base, nil)
		require.NoError(t, err)
		assert.Equal(t, []config.RunConfig{base}, cfgs)
	})

	t.Run("grid", func(t *testing.T) {
		lanes := SweepParam{Name: "num_lanes", Values: []interface{}{2.0, 4.0}}
		params := []SweepParam{
			lanes,
			{Name: "car_density", Start: 0.1, End: 0.3, Step: 0.1},
			{Name: "lane_score_strategy", Values: []interface{}{"forward"}},
		}
		cfgs, err := BuildConfigs(base, params)
		require.NoError(t, err)
		require.Len(t, cfgs, 6)

		assert.Equal(t, 2, cfgs[0].NumLanes)
		assert.Equal(t, 0.1, cfgs[0].CarDensity)
		assert.Equal(t, 2, cfgs[1].NumLanes)
		assert.Equal(t, 0.2, cfgs[1].CarDensity)
		assert.Equal(t, 4, cfgs[3].NumLanes)
		assert.Equal(t, 0.1, cfgs[3].CarDensity)
		for _, c := range cfgs {
			assert.Equal(t, traffic.LaneScoreForward, c.LaneScoreStrategy)
			assert.Equal(t, 10, c.StepsToRun)
		}

		// The caller's params are left untouched.
		assert.Equal(t, []interface{}{2.0, 4.0}, params[0].Values)
		assert.Empty(t, params[1].Values)
	})

	t.Run("duplicate param", func(t *testing.T) {
		_, err := BuildConfigs(base, []SweepParam{
			{Name: "num_lanes", Values: []interface{}{1}},
			{Name: "num_lanes", Values: []interface{}{2}},
		})
		assert.Error(t, err)
	})

	t.Run("invalid combination", func(t *testing.T) {
		_, err := BuildConfigs(base, []SweepParam{{Name: "num_lanes", Values: []interface{}{2, 0}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "combination 1")
	})

	t.Run("invalid base", func(t *testing.T) {
		bad := base
		bad.BrakeRate = 0
		_, err := BuildConfigs(bad, nil)
		assert.Error(t, err)
	})
}
