package world

import "slices"

// AddOccupant records an agent as present in a region.
func (c *City) AddOccupant(r RegionID, agent uint64, infected bool) error {
	reg, err := c.lookup(r)
	if err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.holds(agent) {
		return invariantf("agent %d is already in %s", agent, reg)
	}
	reg.set(infected)[agent] = struct{}{}
	return nil
}

// MoveOccupant removes an agent from one region and adds it to another as a
// single step. Both regions are locked, lower id first, so concurrent moves
// and exposure passes never see the agent in both or neither.
func (c *City) MoveOccupant(from, to RegionID, agent uint64, infected bool) error {
	if from == to {
		return nil
	}
	src, err := c.lookup(from)
	if err != nil {
		return err
	}
	dst, err := c.lookup(to)
	if err != nil {
		return err
	}

	first, second := src, dst
	if second.ID < first.ID {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	set := src.set(infected)
	if _, ok := set[agent]; !ok {
		return invariantf("agent %d is not in %s", agent, src)
	}
	delete(set, agent)
	dst.set(infected)[agent] = struct{}{}
	return nil
}

// Occupants returns sorted snapshots of a region's normal and infected agents.
func (c *City) Occupants(r RegionID) (normal, infected []uint64) {
	reg := c.Region(r)
	if reg == nil {
		return nil, nil
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return sortedKeys(reg.normal), sortedKeys(reg.infected)
}

// Expose runs fn over a region's occupants while holding its lock. The ids
// fn returns are moved from the normal list to the infected one before the
// lock is released.
func (c *City) Expose(r RegionID, fn func(normal, infected []uint64) []uint64) ([]uint64, error) {
	reg, err := c.lookup(r)
	if err != nil {
		return nil, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.normal) == 0 || len(reg.infected) == 0 {
		return nil, nil
	}
	hit := fn(sortedKeys(reg.normal), sortedKeys(reg.infected))
	for _, id := range hit {
		if _, ok := reg.normal[id]; !ok {
			return nil, invariantf("agent %d is not a normal occupant of %s", id, reg)
		}
		delete(reg.normal, id)
		reg.infected[id] = struct{}{}
	}
	return hit, nil
}

func (r *Region) set(infected bool) map[uint64]struct{} {
	if infected {
		return r.infected
	}
	return r.normal
}

func (r *Region) holds(agent uint64) bool {
	_, n := r.normal[agent]
	_, i := r.infected[agent]
	return n || i
}

func sortedKeys(m map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
