package world

import (
	"sync"

	"github.com/paulmach/orb"
)

// Region is a connectable node of the city graph. Leaves are buildings,
// roads and squares; districts contain other regions and are regions
// themselves one level up.
type Region struct {
	ID      RegionID
	Name    string
	Kind    Kind
	Node    NodeKind
	Level   int  // 0 for leaves, max(child level)+1 for districts
	AddSelf bool // whether the region lists itself as reachable at distance 0
	Parent  RegionID

	Bounds orb.Bound
	Shaped bool // false for abstract regions with no geometry

	protocols []ProtocolID
	finalized bool
	cache     map[ProtocolID]map[RegionID]int

	district *districtState

	attractiveness float64

	mu       sync.Mutex // guards normal and infected
	normal   map[uint64]struct{}
	infected map[uint64]struct{}
}

type districtState struct {
	members       []RegionID          // direct children, wrapped to a common level
	named         map[string]RegionID // children as given, keyed by name
	innerFinished bool
}

// IsDistrict reports whether the region contains other regions.
func (r *Region) IsDistrict() bool {
	return r.Node == NodeDistrict
}

// Finalized reports whether the distance cache has been generated.
func (r *Region) Finalized() bool {
	return r.finalized
}

// InnerFinished reports whether a district has completed construction.
// Always false for leaves.
func (r *Region) InnerFinished() bool {
	return r.district != nil && r.district.innerFinished
}

// Protocols returns the incident protocols in the order they were placed.
func (r *Region) Protocols() []ProtocolID {
	return append([]ProtocolID(nil), r.protocols...)
}

// Contains reports whether a point lies inside the region's rectangle.
// Abstract regions contain nothing.
func (r *Region) Contains(p orb.Point) bool {
	return r.Shaped && contains(r.Bounds, p)
}

// Center returns the centroid of the region's rectangle.
func (r *Region) Center() orb.Point {
	return r.Bounds.Center()
}

// Attractiveness is the most recent score set by UpdateAttractiveness.
func (r *Region) Attractiveness() float64 {
	return r.attractiveness
}

func (r *Region) String() string {
	return r.Name
}
