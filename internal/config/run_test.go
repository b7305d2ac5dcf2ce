package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ringroad/internal/traffic"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 200.0, cfg.RoadLength)
	assert.Equal(t, 10, cfg.NumLanes)
	assert.Equal(t, 100000, cfg.StepsToRun)
	assert.Equal(t, traffic.LaneScoreBidirectional, cfg.LaneScoreStrategy)
}

func TestBake(t *testing.T) {
	baked := DefaultRunConfig().Bake()

	assert.Equal(t, 100, baked.NumCars)
	assert.Equal(t, 1.0, baked.CarLength)
	assert.Equal(t, 1.0, baked.Dt)
	assert.Equal(t, 0.2, baked.MaxVelocity)
	assert.InDelta(t, 0.0002, baked.MaxAcceleration, 1e-15)
	assert.InDelta(t, 0.002, baked.MaxDeceleration, 1e-15)
	assert.Equal(t, 1, baked.ViewWidth)
	assert.Equal(t, 0.1, baked.CurrentLaneBias)

	t.Run("car count truncates", func(t *testing.T) {
		cfg := DefaultRunConfig()
		cfg.RoadLength = 33
		cfg.NumLanes = 3
		cfg.CarDensity = 0.1
		assert.Equal(t, 9, cfg.Bake().NumCars)
	})

	t.Run("empty strategy defaults", func(t *testing.T) {
		cfg := DefaultRunConfig()
		cfg.LaneScoreStrategy = ""
		assert.Equal(t, traffic.LaneScoreBidirectional, cfg.Bake().LaneScoreStrategy)
	})
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"negative density", func(c *RunConfig) { c.CarDensity = -1 }},
		{"zero acceleration rate", func(c *RunConfig) { c.AccelerationRate = 0 }},
		{"zero brake rate", func(c *RunConfig) { c.BrakeRate = 0 }},
		{"negative steps", func(c *RunConfig) { c.StepsToRun = -5 }},
		{"road shorter than a car", func(c *RunConfig) { c.RoadLength = 0.5 }},
		{"no lanes", func(c *RunConfig) { c.NumLanes = 0 }},
		{"zero movement", func(c *RunConfig) { c.MaxMovement = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRunConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(tmpDir, "run.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
  "num_lanes": 4,
  "current_lane_bias": 0.3,
  "lane_score_strategy": "ForwardLooking",
  "seed": 17
}`), 0644))

		cfg, err := LoadRunConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.NumLanes)
		assert.Equal(t, 0.3, cfg.CurrentLaneBias)
		assert.Equal(t, traffic.LaneScoreForward, cfg.LaneScoreStrategy)
		assert.Equal(t, uint64(17), cfg.Seed)
		assert.Equal(t, 200.0, cfg.RoadLength)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := LoadRunConfig(filepath.Join(tmpDir, "run.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRunConfig(filepath.Join(tmpDir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(tmpDir, "big.json")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(" ", 1024*1024+1)), 0644))
		_, err := LoadRunConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(tmpDir, "typo.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"num_lane": 3}`), 0644))
		_, err := LoadRunConfig(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"num_lanes": 0}`), 0644))
		_, err := LoadRunConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestSetAndGet(t *testing.T) {
	cfg := DefaultRunConfig()

	require.NoError(t, cfg.Set("road_length", 500.0))
	require.NoError(t, cfg.Set("num_lanes", "3"))
	require.NoError(t, cfg.Set("view_width", 2.0))
	require.NoError(t, cfg.Set("random_stop_rate", "0.002"))
	require.NoError(t, cfg.Set("lane_score_strategy", "backward"))
	require.NoError(t, cfg.Set("seed", 9))

	assert.Equal(t, 500.0, cfg.RoadLength)
	assert.Equal(t, 3, cfg.NumLanes)
	assert.Equal(t, 2, cfg.ViewWidth)
	assert.Equal(t, 0.002, cfg.RandomStopRate)
	assert.Equal(t, traffic.LaneScoreBackward, cfg.LaneScoreStrategy)
	assert.Equal(t, uint64(9), cfg.Seed)

	for _, name := range FieldNames() {
		_, err := cfg.Get(name)
		assert.NoError(t, err, name)
		assert.NotEmpty(t, FieldType(name), name)
	}

	assert.Error(t, cfg.Set("num_lanes", 2.5))
	assert.Error(t, cfg.Set("road_length", "long"))
	assert.Error(t, cfg.Set("lane_score_strategy", "sideways"))
	assert.Error(t, cfg.Set("seed", -1))
	assert.Error(t, cfg.Set("colour", 1))
	_, err := cfg.Get("colour")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvKey("num_lanes"), "6")
	t.Setenv(EnvKey("car_density"), "0.02")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RINGROAD_STEPS_TO_RUN=250\nRINGROAD_NUM_LANES=9\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(EnvKey("steps_to_run")) })

	cfg := DefaultRunConfig()
	require.NoError(t, ApplyEnv(&cfg, envFile))

	assert.Equal(t, 6, cfg.NumLanes, "process environment wins over the file")
	assert.Equal(t, 0.02, cfg.CarDensity)
	assert.Equal(t, 250, cfg.StepsToRun)

	t.Run("missing env file is ignored", func(t *testing.T) {
		cfg := DefaultRunConfig()
		assert.NoError(t, ApplyEnv(&cfg, filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("bad value", func(t *testing.T) {
		t.Setenv(EnvKey("view_width"), "wide")
		cfg := DefaultRunConfig()
		err := ApplyEnv(&cfg, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RINGROAD_VIEW_WIDTH")
	})
}
