package world

// finalize builds r's distance cache. For every incident protocol it records
// how far each region is when leaving through that protocol, never passing
// back through r.
func (c *City) finalize(r *Region) error {
	if r.finalized {
		return constructionf("region %s is already finalized", r)
	}
	cache := make(map[ProtocolID]map[RegionID]int, len(r.protocols))
	for _, pid := range r.protocols {
		cache[pid] = c.sweep(r.ID, c.protocols[pid].OtherSide(r.ID))
	}
	r.cache = cache
	r.finalized = true
	return nil
}

// sweep is a breadth-first search from start with origin already visited.
// start itself sits one hop away.
func (c *City) sweep(origin, start RegionID) map[RegionID]int {
	dist := map[RegionID]int{start: 1}
	visited := map[RegionID]bool{origin: true, start: true}
	frontier := []RegionID{start}
	for hop := 2; len(frontier) > 0; hop++ {
		var next []RegionID
		for _, id := range frontier {
			for _, pid := range c.regions[id].protocols {
				n := c.protocols[pid].OtherSide(id)
				if visited[n] {
					continue
				}
				visited[n] = true
				dist[n] = hop
				next = append(next, n)
			}
		}
		frontier = next
	}
	return dist
}

// reach merges the protocol tables of a finalized region, keeping the
// shortest distance per region. The region itself is always present at 0.
func (r *Region) reach(exclude ProtocolID) map[RegionID]int {
	out := map[RegionID]int{r.ID: 0}
	for _, pid := range r.protocols {
		if pid == exclude {
			continue
		}
		for id, d := range r.cache[pid] {
			if id == r.ID {
				continue
			}
			if old, ok := out[id]; !ok || d < old {
				out[id] = d
			}
		}
	}
	return out
}

// AccessibleFrom returns every region reachable from r at r's level with its
// hop distance. r itself is listed at 0 only if it was created with addSelf.
func (c *City) AccessibleFrom(r RegionID) (map[RegionID]int, error) {
	return c.AccessibleExcept(r, NoProtocol)
}

// AccessibleExcept is AccessibleFrom ignoring what lies behind one protocol.
func (c *City) AccessibleExcept(r RegionID, exclude ProtocolID) (map[RegionID]int, error) {
	reg, err := c.lookup(r)
	if err != nil {
		return nil, err
	}
	if !reg.finalized {
		return nil, constructionf("region %s is not finalized", reg)
	}
	out := reg.reach(exclude)
	if !reg.AddSelf {
		delete(out, reg.ID)
	}
	return out, nil
}

// Distance returns the cached hop count between two regions of one level.
func (c *City) Distance(a, b RegionID) (int, bool) {
	ra := c.Region(a)
	if ra == nil || !ra.finalized {
		return 0, false
	}
	if a == b {
		return 0, true
	}
	d, ok := ra.reach(NoProtocol)[b]
	return d, ok
}
