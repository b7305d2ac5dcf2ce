package traffic

import (
	"math"

	"github.com/samber/lo"
)

// CircularDistance returns the forward distance along the ring from one
// position to another. Identical positions yield a full lap, which callers
// treat as "nothing ahead".
func (c Config) CircularDistance(from, to float64) float64 {
	if from == to {
		return c.RoadLength
	}
	return math.Mod(to-from+c.RoadLength, c.RoadLength)
}

// SafeVelocity is the speed from which a vehicle can stop within distance
// under maximum deceleration, capped at MaxVelocity.
func (c Config) SafeVelocity(distance float64) float64 {
	stop := math.Sqrt(math.Max(2*c.MaxDeceleration*distance, 0))
	return lo.Clamp(stop, 0, c.MaxVelocity)
}

// BrakingMargin is the signed extra stopping distance a rear vehicle needs
// when it is faster than the vehicle in front.
func (c Config) BrakingMargin(vRear, vFront float64) float64 {
	return (vFront*vFront - vRear*vRear) / (2 * c.MaxDeceleration)
}
