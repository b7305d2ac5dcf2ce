package viewer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/ringroad/internal/traffic"
)

func viewerConfig() traffic.Config {
	return traffic.Config{
		RoadLength:        100,
		CarLength:         1,
		NumLanes:          3,
		MaxVelocity:       1,
		MaxAcceleration:   0.01,
		MaxDeceleration:   0.02,
		ViewWidth:         1,
		Dt:                1,
		CurrentLaneBias:   0.1,
		LaneScoreStrategy: traffic.LaneScoreBidirectional,
	}
}

func TestHueToRGB(t *testing.T) {
	tests := []struct {
		hue  float64
		want [4]float64
	}{
		{0, [4]float64{1, 0, 0, 1}},
		{60, [4]float64{1, 1, 0, 1}},
		{90, [4]float64{0.5, 1, 0, 1}},
		{120, [4]float64{0, 1, 0, 1}},
		{180, [4]float64{0, 1, 1, 1}},
		{300, [4]float64{1, 0, 1, 1}},
		{330, [4]float64{1, 0, 0.5, 1}},
	}
	for _, tt := range tests {
		if got := HueToRGB(tt.hue); got != tt.want {
			t.Errorf("HueToRGB(%v) = %v, want %v", tt.hue, got, tt.want)
		}
	}
}

func TestBuildFrame(t *testing.T) {
	sim, err := traffic.NewWithVehicles(viewerConfig(), traffic.NewRand(1), []traffic.Vehicle{
		{Position: 99.5, Velocity: 1, Lane: 2},
		{Position: 10, Velocity: 0.5, Lane: 0},
	})
	if err != nil {
		t.Fatalf("NewWithVehicles: %v", err)
	}

	got := BuildFrame(sim)
	want := Frame{
		Tick:   0,
		Width:  CanvasWidth,
		Height: CanvasHeight,
		Cars: []Rect{
			{X: 140, Y: 0, Width: 14, Height: 133, Colour: [4]float64{1, 1, 0, 1}},
			{X: 1393, Y: 266, Width: 14, Height: 133, Colour: [4]float64{1, 0, 0, 1}},
			{X: -7, Y: 266, Width: 14, Height: 133, Colour: [4]float64{1, 0, 0, 1}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFrame mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFrameEmptyRoad(t *testing.T) {
	sim, err := traffic.New(viewerConfig(), traffic.NewRand(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := BuildFrame(sim)
	if len(f.Cars) != 0 {
		t.Errorf("got %d cars, want 0", len(f.Cars))
	}
	if f.Width != CanvasWidth || f.Height != CanvasHeight {
		t.Errorf("canvas = %dx%d", f.Width, f.Height)
	}
}
