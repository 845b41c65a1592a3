package world

// cacheUpdate sets one distance-table entry, keeping the smaller value if
// the entry already exists.
type cacheUpdate struct {
	Region   RegionID
	Protocol ProtocolID
	Target   RegionID
	Distance int
}

// bridgeUpdates lists the cache entries added or shortened by placing p
// between two finalized regions a and e. It only reads the caches, which must
// not yet know about p.
//
// The tables of p itself are the far end's reach shifted by one hop. Any
// other table in a's component that lists a at distance d also reaches
// every y past e at d+1+d(e,y), and symmetrically for e's component. Regions
// linked to a only transitively or through an earlier bridge are covered
// because every table that reaches a lists it.
func (c *City) bridgeUpdates(p *Protocol) []cacheUpdate {
	a, e := c.regions[p.Regions[0]], c.regions[p.Regions[1]]
	ra, re := a.reach(NoProtocol), e.reach(NoProtocol)

	var out []cacheUpdate
	out = append(out, sideTable(a.ID, p.ID, re)...)
	out = append(out, sideTable(e.ID, p.ID, ra)...)
	out = append(out, c.relay(a.ID, e.ID, ra, re)...)
	out = append(out, c.relay(e.ID, a.ID, re, ra)...)
	return out
}

func sideTable(x RegionID, p ProtocolID, far map[RegionID]int) []cacheUpdate {
	out := make([]cacheUpdate, 0, len(far))
	for y, d := range far {
		if y == x {
			continue
		}
		out = append(out, cacheUpdate{Region: x, Protocol: p, Target: y, Distance: d + 1})
	}
	return out
}

func (c *City) relay(near, far RegionID, nearReach, farReach map[RegionID]int) []cacheUpdate {
	var out []cacheUpdate
	for x := range nearReach {
		if x == near || x == far {
			continue
		}
		rx := c.regions[x]
		for _, pid := range rx.protocols {
			d, ok := rx.cache[pid][near]
			if !ok {
				continue
			}
			for y, dy := range farReach {
				if y == x {
					continue
				}
				out = append(out, cacheUpdate{Region: x, Protocol: pid, Target: y, Distance: d + 1 + dy})
			}
		}
	}
	return out
}

func (c *City) applyUpdates(updates []cacheUpdate) {
	for _, u := range updates {
		r := c.regions[u.Region]
		table, ok := r.cache[u.Protocol]
		if !ok {
			table = make(map[RegionID]int)
			r.cache[u.Protocol] = table
		}
		if old, ok := table[u.Target]; !ok || u.Distance < old {
			table[u.Target] = u.Distance
		}
	}
}
