package world

import (
	"log/slog"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// AddChildren registers the members of a district. It may be called once per
// district, before Finish. Children shallower than the deepest one are
// wrapped in single-child districts named child*, child**, ... until all
// members share a level.
func (c *City) AddChildren(district RegionID, children ...RegionID) error {
	d, err := c.lookup(district)
	if err != nil {
		return err
	}
	if !d.IsDistrict() {
		return constructionf("%s is not a district", d)
	}
	if d.district.innerFinished {
		return constructionf("district %s is already finished", d)
	}
	if len(d.district.members) > 0 {
		return constructionf("district %s already has children", d)
	}
	if len(children) == 0 {
		return constructionf("district %s needs at least one child", d)
	}

	level := 0
	seen := make(map[string]bool, len(children))
	for _, id := range children {
		ch, err := c.lookup(id)
		if err != nil {
			return err
		}
		switch {
		case ch.ID == d.ID:
			return constructionf("district %s cannot contain itself", d)
		case ch.Parent != NoRegion:
			return constructionf("%s already belongs to %s", ch, c.regions[ch.Parent])
		case ch.IsDistrict() && !ch.district.innerFinished:
			return constructionf("child district %s is not finished", ch)
		case seen[ch.Name]:
			return constructionf("duplicate child name %q in %s", ch.Name, d)
		}
		seen[ch.Name] = true
		level = max(level, ch.Level)
	}

	for _, id := range children {
		root, err := c.wrap(id, level)
		if err != nil {
			return err
		}
		c.regions[root].Parent = d.ID
		d.district.members = append(d.district.members, root)
		d.district.named[c.regions[id].Name] = id
		c.growBounds(d, c.regions[root])
	}
	d.Level = level + 1

	slog.Debug("district populated", "district", d.Name, "level", d.Level, "children", len(children))
	return nil
}

// wrap nests id in finished single-child districts until it reaches level.
func (c *City) wrap(id RegionID, level int) (RegionID, error) {
	root := id
	name := c.regions[id].Name
	for i := 1; c.regions[root].Level < level; i++ {
		inner := c.regions[root]
		w := c.regions[c.NewDistrict(name+strings.Repeat("*", i))]
		w.AddSelf = inner.AddSelf
		w.Level = inner.Level + 1
		w.district.members = []RegionID{root}
		w.district.named[inner.Name] = root
		c.growBounds(w, inner)
		inner.Parent = w.ID
		if err := c.Finish(w.ID); err != nil {
			return NoRegion, err
		}
		root = w.ID
	}
	return root, nil
}

func (c *City) growBounds(d, child *Region) {
	if !child.Shaped {
		return
	}
	if !d.Shaped {
		d.Bounds, d.Shaped = child.Bounds, true
		return
	}
	d.Bounds = d.Bounds.Union(child.Bounds)
}

// Connect links two leaf regions whose lowest common district is district.
// Besides the leaf protocol it places one protocol per level between the
// ancestors that are still distinct, so every level sees the link.
func (c *City) Connect(district, a, b RegionID) error {
	d, err := c.lookup(district)
	if err != nil {
		return err
	}
	if !d.IsDistrict() {
		return constructionf("%s is not a district", d)
	}
	ra, err := c.lookup(a)
	if err != nil {
		return err
	}
	rb, err := c.lookup(b)
	if err != nil {
		return err
	}
	if a == b {
		return constructionf("cannot connect %s to itself", ra)
	}
	if ra.IsDistrict() || rb.IsDistrict() {
		return constructionf("connections are built between leaf regions, got %s and %s", ra, rb)
	}

	type rung struct{ x, y *Region }
	var chain []rung
	x, y := ra, rb
	for {
		if x.Level != y.Level {
			return constructionf("%s has level %d but %s has level %d", x, x.Level, y, y.Level)
		}
		if x.finalized != y.finalized {
			return constructionf("%s and %s are in different construction states", x, y)
		}
		chain = append(chain, rung{x, y})
		if x.Parent == NoRegion || y.Parent == NoRegion {
			return constructionf("%s and %s share no district", ra, rb)
		}
		if x.Parent == y.Parent {
			if x.Parent != d.ID {
				return constructionf("%s is not the lowest common district of %s and %s", d, ra, rb)
			}
			break
		}
		px, py := c.regions[x.Parent], c.regions[y.Parent]
		if !px.district.innerFinished {
			return constructionf("district %s containing %s is not finished", px, ra)
		}
		if !py.district.innerFinished {
			return constructionf("district %s containing %s is not finished", py, rb)
		}
		x, y = px, py
	}

	pa, pb, err := c.leafPorts(ra, rb)
	if err != nil {
		return err
	}

	ex, ey := a, b
	for _, r := range chain {
		c.place(r.x, r.y, ex, ey, pa, pb)
		ex, ey = r.x.ID, r.y.ID
	}

	slog.Debug("regions connected", "district", d.Name, "a", ra.Name, "b", rb.Name, "levels", len(chain))
	return nil
}

func (c *City) leafPorts(a, b *Region) (orb.Point, orb.Point, error) {
	switch {
	case a.Shaped && b.Shaped:
		pa, pb, err := portPositions(a.Bounds, b.Bounds)
		if err != nil {
			return pa, pb, constructionf("connecting %s and %s: %v", a, b, err)
		}
		return pa, pb, nil
	case a.Shaped:
		return a.Center(), a.Center(), nil
	case b.Shaped:
		return b.Center(), b.Center(), nil
	}
	return orb.Point{}, orb.Point{}, nil
}

func (c *City) newPort(owner, entry RegionID, level int, pos orb.Point) PortID {
	p := &Port{ID: PortID(len(c.ports)), Owner: owner, Entry: entry, Level: level, Pos: pos}
	c.ports = append(c.ports, p)
	return p.ID
}

// place creates a protocol between x and y. Between unfinalized regions it
// is only recorded and gets its tables at Finish; between finalized ones the
// bridge update runs against the caches as they were before the link.
func (c *City) place(x, y *Region, ex, ey RegionID, px, py orb.Point) *Protocol {
	p := &Protocol{
		ID:      ProtocolID(len(c.protocols)),
		Level:   x.Level,
		Regions: [2]RegionID{x.ID, y.ID},
		Ports: [2]PortID{
			c.newPort(x.ID, ex, x.Level, px),
			c.newPort(y.ID, ey, y.Level, py),
		},
	}
	c.protocols = append(c.protocols, p)

	var updates []cacheUpdate
	if x.finalized {
		updates = c.bridgeUpdates(p)
	}
	x.protocols = append(x.protocols, p.ID)
	y.protocols = append(y.protocols, p.ID)
	c.applyUpdates(updates)
	return p
}

// Finish finalizes every member of a district and marks it finished. After
// this the district can be added to a parent, and its members can be
// queried and routed through.
func (c *City) Finish(district RegionID) error {
	d, err := c.lookup(district)
	if err != nil {
		return err
	}
	if !d.IsDistrict() {
		return constructionf("%s is not a district", d)
	}
	if d.district.innerFinished {
		return constructionf("district %s is already finished", d)
	}
	if len(d.district.members) == 0 {
		return constructionf("district %s has no children", d)
	}
	for _, id := range d.district.members {
		if c.regions[id].finalized {
			return constructionf("region %s is already finalized", c.regions[id])
		}
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for _, id := range d.district.members {
		r := c.regions[id]
		g.Go(func() error {
			return c.finalize(r)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	d.district.innerFinished = true
	return nil
}
