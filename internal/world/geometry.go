package world

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Rect returns the half-open rectangle [x0, x1) × [y0, y1).
func Rect(x0, x1, y0, y1 float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x0, y0}, Max: orb.Point{x1, y1}}
}

// contains treats the bound as half-open so that rectangles sharing an edge
// never both claim the points on it.
func contains(b orb.Bound, p orb.Point) bool {
	return p[0] >= b.Min[0] && p[0] < b.Max[0] &&
		p[1] >= b.Min[1] && p[1] < b.Max[1]
}

type span struct{ lo, hi float64 }

func (s span) length() float64 { return s.hi - s.lo }
func (s span) mid() float64    { return (s.lo + s.hi) / 2 }

func overlap(a0, a1, b0, b1 float64) (span, bool) {
	lo, hi := math.Max(a0, b0), math.Min(a1, b1)
	return span{lo, hi}, lo <= hi
}

// portPositions places the two ends of a connection between rectangles that
// touch or overlap. Touching rectangles get their ports one unit either side
// of the shared edge, at its midpoint; overlapping ones share the centre of
// the overlap.
func portPositions(a, b orb.Bound) (orb.Point, orb.Point, error) {
	xs, okx := overlap(a.Min[0], a.Max[0], b.Min[0], b.Max[0])
	ys, oky := overlap(a.Min[1], a.Max[1], b.Min[1], b.Max[1])
	if !okx || !oky {
		return orb.Point{}, orb.Point{}, fmt.Errorf("rectangles %v and %v do not touch", a, b)
	}

	mid := orb.Point{xs.mid(), ys.mid()}
	pa, pb := mid, mid
	switch {
	case ys.length() == 0: // stacked vertically
		if a.Center()[1] > b.Center()[1] {
			pa[1]++
			pb[1]--
		} else {
			pa[1]--
			pb[1]++
		}
	case xs.length() == 0: // side by side
		if a.Center()[0] > b.Center()[0] {
			pa[0]++
			pb[0]--
		} else {
			pa[0]--
			pb[0]++
		}
	}

	if !contains(a, pa) {
		return orb.Point{}, orb.Point{}, fmt.Errorf("port %v falls outside %v", pa, a)
	}
	if !contains(b, pb) {
		return orb.Point{}, orb.Point{}, fmt.Errorf("port %v falls outside %v", pb, b)
	}
	return pa, pb, nil
}
