// Package viewer streams a live ring-road simulation to browsers.
//
// A Loop owns one simulation and steps it on a clock. After every step it
// renders a Frame of coloured rectangles and hands it to a Publisher,
// normally a Hub that fans frames out over WebSocket.
package viewer

import (
	"math"

	"github.com/banshee-data/ringroad/internal/traffic"
)

// Canvas size in pixels.
const (
	CanvasWidth  = 1400
	CanvasHeight = 400
)

// Rect is one vehicle body in canvas coordinates. Colour is RGBA in [0, 1].
type Rect struct {
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"w"`
	Height float64    `json:"h"`
	Colour [4]float64 `json:"colour"`
}

// Frame is everything a client needs to draw one tick.
type Frame struct {
	Tick            int     `json:"tick"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	AverageFlowRate float64 `json:"average_flow_rate"`
	Cars            []Rect  `json:"cars"`
}

// BuildFrame lays the fleet out on the canvas with one horizontal band per
// lane. A vehicle whose body runs past the end of the road is drawn twice,
// the second copy shifted back by one road length so it shows at the left
// edge.
func BuildFrame(sim *traffic.Simulation) Frame {
	cfg := sim.Config()
	f := Frame{Tick: sim.Ticks(), Width: CanvasWidth, Height: CanvasHeight}
	if cfg.NumLanes < 1 || cfg.RoadLength <= 0 {
		return f
	}

	xMul := CanvasWidth / cfg.RoadLength
	// Lane bands use whole pixels.
	yMul := float64(CanvasHeight / cfg.NumLanes)

	vs := sim.Vehicles()
	f.Cars = make([]Rect, 0, len(vs))
	draw := func(pos float64, v traffic.Vehicle) {
		f.Cars = append(f.Cars, Rect{
			X:      pos * xMul,
			Y:      float64(v.Lane) * yMul,
			Width:  cfg.CarLength * xMul,
			Height: yMul,
			Colour: HueToRGB(120 - 120*v.Velocity/cfg.MaxVelocity),
		})
	}
	for _, v := range vs {
		draw(v.Position, v)
		if v.Position+cfg.CarLength > cfg.RoadLength {
			draw(v.Position-cfg.RoadLength, v)
		}
	}
	return f
}

// HueToRGB converts a hue in degrees to a fully saturated RGBA colour with
// zero lightness offset. 120 is green and 0 is red.
func HueToRGB(hue float64) [4]float64 {
	const chroma = 1.0
	h := hue / 60
	x := chroma * (1 - math.Abs(math.Mod(h, 2)-1))

	var r, g, b float64
	switch {
	case h <= 1:
		r, g, b = chroma, x, 0
	case h <= 2:
		r, g, b = x, chroma, 0
	case h <= 3:
		r, g, b = 0, chroma, x
	case h <= 4:
		r, g, b = 0, x, chroma
	case h <= 5:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return [4]float64{r, g, b, 1}
}
