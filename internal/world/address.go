package world

import (
	"math"
	"math/rand"
	"strings"
)

// NoPort is returned alongside routing errors.
const NoPort PortID = -1

// Address is the ancestor chain of a region, from the region itself up to
// the outermost district.
type Address []RegionID

// Address builds the ancestor chain of r.
func (c *City) Address(r RegionID) Address {
	var out Address
	for reg := c.Region(r); reg != nil; reg = c.Region(reg.Parent) {
		out = append(out, reg.ID)
	}
	return out
}

// Format renders the chain as names joined by arrows.
func (a Address) Format(c *City) string {
	names := make([]string, len(a))
	for i, id := range a {
		names[i] = c.regions[id].Name
	}
	return strings.Join(names, "->")
}

// FindPort picks the next port on a shortest route from origin to target.
// The returned port lies on the far side of a protocol incident to origin,
// so its Owner is the next region to enter and its Pos is where to walk.
// Ties are broken with rng; a nil rng takes the first candidate.
func (c *City) FindPort(origin, target RegionID, rng *rand.Rand) (PortID, error) {
	o, err := c.lookup(origin)
	if err != nil {
		return NoPort, err
	}
	t, err := c.lookup(target)
	if err != nil {
		return NoPort, err
	}
	if o.Level != t.Level {
		return NoPort, routingf("%s has level %d but %s has level %d", o, o.Level, t, t.Level)
	}
	return c.findPort(c.Address(origin), c.Address(target), rng)
}

// findPort walks both addresses upward in lock-step. When origin has no
// direct route to target, the route between their parents decides which
// region of the next district to head for, and the search resolves toward
// that entry at the original level.
func (c *City) findPort(from, to Address, rng *rand.Rand) (PortID, error) {
	if len(from) == 0 || len(to) == 0 {
		return NoPort, routingf("addresses run out before a route is found")
	}
	o, t := c.regions[from[0]], c.regions[to[0]]
	if o.ID == t.ID {
		return NoPort, routingf("%s is already at %s", o, t)
	}
	if !o.finalized {
		return NoPort, routingf("%s has no distance cache", o)
	}
	if port, ok := c.directPort(o, t.ID, rng); ok {
		return port, nil
	}
	if len(from) > 1 && len(to) > 1 && from[1] == to[1] {
		return NoPort, routingf("no route from %s to %s inside %s", o, t, c.regions[from[1]])
	}

	up, err := c.findPort(from[1:], to[1:], rng)
	if err != nil {
		return NoPort, err
	}
	entry := c.ports[up].Entry
	if port, ok := c.directPort(o, entry, rng); ok {
		return port, nil
	}
	return NoPort, routingf("no route from %s toward %s through %s", o, t, c.regions[entry])
}

func (c *City) directPort(o *Region, target RegionID, rng *rand.Rand) (PortID, bool) {
	best := math.MaxInt
	var candidates []PortID
	for _, pid := range o.protocols {
		d, ok := o.cache[pid][target]
		if !ok {
			continue
		}
		port := c.protocols[pid].PortAgainst(o.ID)
		switch {
		case d < best:
			best = d
			candidates = append(candidates[:0], port)
		case d == best:
			candidates = append(candidates, port)
		}
	}
	switch {
	case len(candidates) == 0:
		return NoPort, false
	case len(candidates) == 1 || rng == nil:
		return candidates[0], true
	}
	return candidates[rng.Intn(len(candidates))], true
}
