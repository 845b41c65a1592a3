package world

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// VerifyDistances checks every finalized region's cached distances against a
// shortest-path search over its level's protocol graph. It returns a
// construction error describing the first disagreement.
func (c *City) VerifyDistances() error {
	graphs := make(map[int]*simple.UndirectedGraph)
	level := func(l int) *simple.UndirectedGraph {
		g, ok := graphs[l]
		if !ok {
			g = simple.NewUndirectedGraph()
			graphs[l] = g
		}
		return g
	}
	for _, r := range c.regions {
		g := level(r.Level)
		if g.Node(int64(r.ID)) == nil {
			g.AddNode(simple.Node(r.ID))
		}
	}
	for _, p := range c.protocols {
		a, b := int64(p.Regions[0]), int64(p.Regions[1])
		g := level(p.Level)
		if g.HasEdgeBetween(a, b) {
			continue // parallel protocols share one hop
		}
		g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
	}

	for _, r := range c.regions {
		if !r.finalized {
			continue
		}
		g := graphs[r.Level]
		shortest := path.DijkstraFrom(simple.Node(r.ID), g)
		got := r.reach(NoProtocol)

		for _, other := range c.regions {
			if other.Level != r.Level {
				continue
			}
			want := shortest.WeightTo(int64(other.ID))
			d, ok := got[other.ID]
			switch {
			case math.IsInf(want, 1) && ok:
				return constructionf("%s lists unreachable %s at %d", r, other, d)
			case math.IsInf(want, 1):
			case !ok:
				return constructionf("%s is missing %s (shortest path %v)", r, other, want)
			case float64(d) != want:
				return constructionf("%s has %s at %d, shortest path is %v", r, other, d, want)
			}
		}
	}
	return nil
}
