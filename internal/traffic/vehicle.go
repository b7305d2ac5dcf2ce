package traffic

import "sort"

// Vehicle is one car on the ring.
type Vehicle struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Lane     int     `json:"lane"`
}

// sortByPosition restores ascending position order. Equal positions keep
// their relative order.
func sortByPosition(vs []Vehicle) {
	sort.SliceStable(vs, func(a, b int) bool {
		return vs[a].Position < vs[b].Position
	})
}

func isSortedByPosition(vs []Vehicle) bool {
	return sort.SliceIsSorted(vs, func(a, b int) bool {
		return vs[a].Position < vs[b].Position
	})
}
