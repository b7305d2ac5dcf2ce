package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/fsutil"
	"github.com/banshee-data/ringroad/internal/sweep"
)

// Axis is a run parameter used as the x axis, named by its config key.
type Axis string

const (
	AxisRoadLength   Axis = "road_length"
	AxisNumLanes     Axis = "num_lanes"
	AxisSteps        Axis = "steps_to_run"
	AxisMovement     Axis = "max_movement"
	AxisDensity      Axis = "car_density"
	AxisLaneBias     Axis = "current_lane_bias"
	AxisStopRate     Axis = "random_stop_rate"
	AxisAcceleration Axis = "acceleration_rate"
	AxisBraking      Axis = "brake_rate"
)

var axisLabels = map[Axis]string{
	AxisRoadLength:   "Road Length",
	AxisNumLanes:     "Number of Lanes",
	AxisSteps:        "Simulation Duration (Steps)",
	AxisMovement:     "Maximum Per-Step Movement",
	AxisDensity:      "Vehicle Density",
	AxisLaneBias:     "Current Lane Bias",
	AxisStopRate:     "Spontaneous Braking Rate",
	AxisAcceleration: "Acceleration Rate",
	AxisBraking:      "Deceleration Rate",
}

// Label returns the human-readable axis title.
func (a Axis) Label() string {
	if l, ok := axisLabels[a]; ok {
		return l
	}
	return string(a)
}

// ParseAxis validates an axis name.
func ParseAxis(s string) (Axis, error) {
	a := Axis(s)
	if _, ok := axisLabels[a]; !ok {
		return "", fmt.Errorf("unknown axis %q", s)
	}
	return a, nil
}

func (a Axis) value(rc config.RunConfig) (float64, error) {
	v, err := rc.Get(string(a))
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("axis %q is not numeric", a)
}

// Metric is a derived result plotted on the y axis.
type Metric string

const (
	MetricFlowRate        Metric = "flow_rate"
	MetricFlowPerLane     Metric = "flow_per_lane"
	MetricFlowPerMovement Metric = "flow_per_movement"
	MetricUtilisation     Metric = "utilisation"
	MetricCollisions      Metric = "collisions"
)

var metricLabels = map[Metric]string{
	MetricFlowRate:        "Flow Rate",
	MetricFlowPerLane:     "Flow Rate per Lane",
	MetricFlowPerMovement: "Flow Rate per Velocity",
	MetricUtilisation:     "Utilisation",
	MetricCollisions:      "Collisions per Step",
}

// Label returns the human-readable metric title.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := metricLabels[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

func (m Metric) value(rec sweep.Record) float64 {
	r := rec.Result
	switch m {
	case MetricFlowPerLane:
		return r.FlowRate / float64(rec.Config.NumLanes)
	case MetricFlowPerMovement:
		return r.FlowRate / rec.Config.MaxMovement
	case MetricUtilisation:
		return r.FlowRate / r.MaxFlowRate
	case MetricCollisions:
		return r.Collisions
	}
	return r.FlowRate
}

// Series is one labelled line.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.X) }

// NewSeries extracts (axis, metric) pairs from records in record order.
func NewSeries(label string, records []sweep.Record, x Axis, y Metric) (Series, error) {
	s := Series{Label: label, X: make([]float64, 0, len(records)), Y: make([]float64, 0, len(records))}
	for _, rec := range records {
		xv, err := x.value(rec.Config)
		if err != nil {
			return Series{}, err
		}
		s.X = append(s.X, xv)
		s.Y = append(s.Y, y.value(rec))
	}
	return s, nil
}

// AverageOverSame collapses points sharing an x value into their mean,
// returning x in ascending order.
func (s Series) AverageOverSame() Series {
	sums := make(map[float64]float64)
	counts := make(map[float64]int)
	for i, x := range s.X {
		sums[x] += s.Y[i]
		counts[x]++
	}

	out := Series{Label: s.Label, X: make([]float64, 0, len(sums))}
	for x := range sums {
		out.X = append(out.X, x)
	}
	sort.Float64s(out.X)
	out.Y = make([]float64, len(out.X))
	for i, x := range out.X {
		out.Y[i] = sums[x] / float64(counts[x])
	}
	return out
}

// Chart describes one figure.
type Chart struct {
	Title  string
	X      Axis
	Y      Metric
	LogX   bool
	Series []Series
}

// Source is a results directory plotted as one labelled line.
type Source struct {
	Label string
	Dir   string
}

// ParseSource accepts "label=dir" or a bare dir, which is labelled by its
// base name.
func ParseSource(s string) (Source, error) {
	label, dir, ok := strings.Cut(s, "=")
	if !ok {
		dir = s
		label = filepath.Base(filepath.Clean(s))
	}
	label = strings.TrimSpace(label)
	dir = strings.TrimSpace(dir)
	if dir == "" || label == "" {
		return Source{}, fmt.Errorf("invalid series %q, want label=dir", s)
	}
	return Source{Label: label, Dir: dir}, nil
}

// ChartSpec describes a chart to assemble from result directories.
type ChartSpec struct {
	Title   string
	X       Axis
	Y       Metric
	LogX    bool
	Average bool // collapse runs sharing an x value into their mean
	Sources []Source
}

// BuildChart loads every source and extracts one series per directory.
func BuildChart(fs fsutil.FileSystem, spec ChartSpec) (Chart, error) {
	if len(spec.Sources) == 0 {
		return Chart{}, fmt.Errorf("no series to plot")
	}
	c := Chart{Title: spec.Title, X: spec.X, Y: spec.Y, LogX: spec.LogX}
	for _, src := range spec.Sources {
		recs, err := LoadRecords(fs, src.Dir)
		if err != nil {
			return Chart{}, err
		}
		s, err := NewSeries(src.Label, recs, spec.X, spec.Y)
		if err != nil {
			return Chart{}, err
		}
		if spec.Average {
			s = s.AverageOverSame()
		}
		c.Series = append(c.Series, s)
	}
	return c, nil
}
