package engine

import (
	"math/rand"

	"github.com/paulmach/orb/planar"

	"github.com/talgya/vcity/internal/agents"
)

// Exposure decides which normal occupants of one region catch the
// infection this tick. It runs under the region's lock and must not touch
// anything but its arguments.
type Exposure interface {
	Expose(normal, infected []*agents.Individual, rng *rand.Rand) []agents.AgentID
}

// ProximityExposure infects a normal occupant with probability Risk for
// each infected occupant within Distance of it.
type ProximityExposure struct {
	Distance float64
	Risk     float64
}

// DefaultExposure is the stock virus: 1.8 units, 1% per contact per tick.
var DefaultExposure = ProximityExposure{Distance: 1.8, Risk: 0.01}

func (p ProximityExposure) Expose(normal, infected []*agents.Individual, rng *rand.Rand) []agents.AgentID {
	var hit []agents.AgentID
	for _, n := range normal {
		for _, i := range infected {
			if planar.Distance(n.Pos, i.Pos) > p.Distance {
				continue
			}
			if rng.Float64() < p.Risk {
				hit = append(hit, n.ID)
				break
			}
		}
	}
	return hit
}
