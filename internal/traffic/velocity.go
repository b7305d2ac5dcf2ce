package traffic

import "math"

// followVelocity applies the car-following law to car given its same-lane
// leader. A non-positive gap is a collision and stops the car.
func (c Config) followVelocity(car, leader Vehicle) (v float64, collided bool) {
	gap := c.CircularDistance(car.Position, leader.Position) - c.CarLength
	if gap <= 0 {
		return 0, true
	}

	target := c.SafeVelocity(gap)
	if target < car.Velocity {
		return math.Max(car.Velocity-c.MaxDeceleration*c.Dt, target), false
	}
	return math.Min(car.Velocity+c.MaxAcceleration*c.Dt, target), false
}

// updateVelocities runs the velocity engine and lane decision for every
// vehicle in slice order, mutating in place so that later vehicles see lane
// changes made earlier in the same tick. Returns the collision count.
func (c Config) updateVelocities(vs []Vehicle) int {
	collisions := 0
	for i := range vs {
		nb, ok := resolveLane(vs, i, vs[i].Lane)
		if !ok {
			continue
		}

		v, collided := c.followVelocity(vs[i], vs[nb.ahead])
		if collided {
			collisions++
		}
		vs[i].Velocity = v

		vs[i].Lane = c.decideLane(vs, i, nb)
	}
	return collisions
}
