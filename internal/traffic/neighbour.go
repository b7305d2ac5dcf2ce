package traffic

// TravelDirection is a step along the road, used to walk the position-sorted
// vehicle slice.
type TravelDirection int

const (
	Forward  TravelDirection = 1
	Backward TravelDirection = -1
)

// LateralDirection is a step across lanes.
type LateralDirection int

const (
	Right LateralDirection = 1
	Left  LateralDirection = -1
)

// nearestInLane walks the slice circularly from start in dir until it finds a
// vehicle in lane or comes back to start. The start vehicle only counts when
// it is itself in lane.
func nearestInLane(vs []Vehicle, start, lane int, dir TravelDirection) (int, bool) {
	n := len(vs)
	idx := start
	for {
		idx = (idx + int(dir) + n) % n
		if vs[idx].Lane == lane || idx == start {
			break
		}
	}
	if vs[idx].Lane == lane {
		return idx, true
	}
	return 0, false
}

// laneNeighbours holds the indices of the nearest vehicles ahead and behind
// in one lane. A sole occupant is its own neighbour both ways.
type laneNeighbours struct {
	ahead  int
	behind int
}

// resolveLane finds the neighbours in lane relative to the vehicle at start.
func resolveLane(vs []Vehicle, start, lane int) (laneNeighbours, bool) {
	ahead, ok := nearestInLane(vs, start, lane, Forward)
	if !ok {
		return laneNeighbours{}, false
	}
	behind, ok := nearestInLane(vs, start, lane, Backward)
	if !ok {
		return laneNeighbours{}, false
	}
	return laneNeighbours{ahead: ahead, behind: behind}, true
}
