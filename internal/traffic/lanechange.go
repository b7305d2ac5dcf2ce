package traffic

import (
	"sort"

	"github.com/samber/lo"
)

// laneScore estimates how unconstrained the neighbours would be with car
// slotted between ahead and behind, normalised to [0, 1].
func (c Config) laneScore(car, ahead, behind Vehicle) float64 {
	front := c.SafeVelocity(c.CircularDistance(car.Position, ahead.Position))
	back := c.SafeVelocity(c.CircularDistance(behind.Position, car.Position))

	switch c.LaneScoreStrategy {
	case LaneScoreForward:
		return front / c.MaxVelocity
	case LaneScoreBackward:
		return back / c.MaxVelocity
	default:
		return (back + front) / (2 * c.MaxVelocity)
	}
}

type laneCandidate struct {
	score float64
	lane  int
}

// evaluateLaneChange scans up to ViewWidth lanes in dir and returns the best
// safe score together with the adjacent lane. An unsafe lane ends the scan.
// The adjacent lane is proposed even when nothing was scored.
func (c Config) evaluateLaneChange(vs []Vehicle, i int, dir LateralDirection) laneCandidate {
	car := vs[i]
	best := 0.0

	for lanesAway := 1; ; lanesAway++ {
		lane := car.Lane + int(dir)*lanesAway
		if lane < 0 || lane >= c.NumLanes || lanesAway > c.ViewWidth {
			break
		}

		nb, ok := resolveLane(vs, i, lane)
		if !ok {
			// Empty lane: score against the full-lap sentinel.
			best = max(best, c.laneScore(car, car, car))
			continue
		}

		ahead, behind := vs[nb.ahead], vs[nb.behind]
		required := c.CarLength + c.MaxVelocity*c.Dt*float64(lanesAway-1)
		distBehind := c.CircularDistance(behind.Position, car.Position)
		distAhead := c.CircularDistance(car.Position, ahead.Position)

		unsafe := distBehind < required+max(c.BrakingMargin(car.Velocity, behind.Velocity), 0) &&
			distAhead < required+max(c.BrakingMargin(ahead.Velocity, car.Velocity), 0)
		if unsafe {
			break
		}
		best = max(best, c.laneScore(car, ahead, behind))
	}

	return laneCandidate{score: best, lane: car.Lane + int(dir)}
}

// decideLane picks between staying, moving right and moving left. Higher
// score wins; ties go to the smaller lateral move. The result is clamped to
// the road.
func (c Config) decideLane(vs []Vehicle, i int, nb laneNeighbours) int {
	car := vs[i]
	options := []laneCandidate{
		{score: c.laneScore(car, vs[nb.ahead], vs[nb.behind]) + c.CurrentLaneBias, lane: car.Lane},
		c.evaluateLaneChange(vs, i, Right),
		c.evaluateLaneChange(vs, i, Left),
	}

	sort.SliceStable(options, func(a, b int) bool {
		if options[a].score != options[b].score {
			return options[a].score > options[b].score
		}
		return lateralMove(options[a].lane, car.Lane) < lateralMove(options[b].lane, car.Lane)
	})

	return lo.Clamp(options[0].lane, 0, c.NumLanes-1)
}

func lateralMove(lane, from int) int {
	if lane > from {
		return lane - from
	}
	return from - lane
}
