package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
)

// City is the arena that owns every region, protocol and port. Everything
// refers to everything else by id, so the graph can be read from many
// goroutines once construction is over.
type City struct {
	regions   []*Region
	protocols []*Protocol
	ports     []*Port

	opts  Options
	noise opensimplex.Noise
}

// NewCity creates an empty city. Zero-valued attractiveness functions in
// opts fall back to the defaults.
func NewCity(opts Options) *City {
	def := DefaultOptions()
	if opts.Residential == nil {
		opts.Residential = def.Residential
	}
	if opts.Business == nil {
		opts.Business = def.Business
	}
	if opts.Square == nil {
		opts.Square = def.Square
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	return &City{
		opts:  opts,
		noise: opensimplex.NewNormalized(opts.NoiseSeed),
	}
}

func (c *City) addRegion(r *Region) RegionID {
	r.ID = RegionID(len(c.regions))
	r.Parent = NoRegion
	r.normal = make(map[uint64]struct{})
	r.infected = make(map[uint64]struct{})
	c.regions = append(c.regions, r)
	return r.ID
}

// NewRegion adds a rectangular leaf region.
func (c *City) NewRegion(name string, kind Kind, addSelf bool, bounds orb.Bound) RegionID {
	return c.addRegion(&Region{
		Name:    name,
		Kind:    kind,
		Node:    NodeLeaf,
		AddSelf: addSelf,
		Bounds:  bounds,
		Shaped:  true,
	})
}

// NewAbstractRegion adds a leaf with no geometry. Useful for pure graph
// work; agents cannot stand in it.
func (c *City) NewAbstractRegion(name string, addSelf bool) RegionID {
	return c.addRegion(&Region{
		Name:    name,
		Kind:    KindGeneric,
		Node:    NodeLeaf,
		AddSelf: addSelf,
	})
}

// NewDistrict adds an empty district. Its level and bounds are fixed when
// children are added.
func (c *City) NewDistrict(name string) RegionID {
	return c.addRegion(&Region{
		Name:     name,
		Kind:     KindGeneric,
		Node:     NodeDistrict,
		AddSelf:  true,
		district: &districtState{named: make(map[string]RegionID)},
	})
}

// Region returns the region with the given id, or nil.
func (c *City) Region(id RegionID) *Region {
	if id < 0 || int(id) >= len(c.regions) {
		return nil
	}
	return c.regions[id]
}

// Protocol returns the protocol with the given id, or nil.
func (c *City) Protocol(id ProtocolID) *Protocol {
	if id < 0 || int(id) >= len(c.protocols) {
		return nil
	}
	return c.protocols[id]
}

// Port returns the port with the given id, or nil.
func (c *City) Port(id PortID) *Port {
	if id < 0 || int(id) >= len(c.ports) {
		return nil
	}
	return c.ports[id]
}

// NumRegions returns how many regions (wrappers included) the city holds.
func (c *City) NumRegions() int {
	return len(c.regions)
}

func (c *City) lookup(id RegionID) (*Region, error) {
	r := c.Region(id)
	if r == nil {
		return nil, constructionf("unknown region %d", id)
	}
	return r, nil
}

// Child finds a direct child of a district by the name it was added under.
// Wrapped children are returned unwrapped.
func (c *City) Child(district RegionID, name string) (RegionID, bool) {
	d := c.Region(district)
	if d == nil || d.district == nil {
		return NoRegion, false
	}
	id, ok := d.district.named[name]
	return id, ok
}

// Children returns the direct members of a district after wrapping, in the
// order they were added.
func (c *City) Children(district RegionID) []RegionID {
	d := c.Region(district)
	if d == nil || d.district == nil {
		return nil
	}
	return append([]RegionID(nil), d.district.members...)
}

// Leaves returns every leaf region sorted by id.
func (c *City) Leaves() []RegionID {
	var out []RegionID
	for _, r := range c.regions {
		if !r.IsDistrict() {
			out = append(out, r.ID)
		}
	}
	return out
}

// RegionsOfKind returns the leaves of a kind, sorted by id.
func (c *City) RegionsOfKind(kinds ...Kind) []RegionID {
	var out []RegionID
	for _, r := range c.regions {
		if r.IsDistrict() {
			continue
		}
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r.ID)
				break
			}
		}
	}
	return out
}

// LocateLeaf returns the leaf region whose rectangle contains p.
func (c *City) LocateLeaf(p orb.Point) (RegionID, bool) {
	for _, r := range c.regions {
		if !r.IsDistrict() && r.Contains(p) {
			return r.ID, true
		}
	}
	return NoRegion, false
}
