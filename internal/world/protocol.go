package world

import "github.com/paulmach/orb"

// Port is one end of a protocol. Level-0 ports sit on leaf regions at a
// physical position. Ports on higher-level protocols belong to the ancestor
// at that level and are entered through the region one level below, their
// Entry; they share the position of the leaf port they were created with.
type Port struct {
	ID    PortID
	Owner RegionID
	Entry RegionID
	Level int
	Pos   orb.Point
}

// Protocol is an edge between two regions of the same level.
type Protocol struct {
	ID      ProtocolID
	Level   int
	Regions [2]RegionID
	Ports   [2]PortID
}

func (p *Protocol) side(r RegionID) int {
	switch r {
	case p.Regions[0]:
		return 0
	case p.Regions[1]:
		return 1
	}
	return -1
}

// OtherSide returns the region across the protocol from r.
func (p *Protocol) OtherSide(r RegionID) RegionID {
	if p.side(r) == 0 {
		return p.Regions[1]
	}
	return p.Regions[0]
}

// PortAgainst returns the port on the far side from r, which is where a
// traveller leaving r through this protocol is headed.
func (p *Protocol) PortAgainst(r RegionID) PortID {
	if p.side(r) == 0 {
		return p.Ports[1]
	}
	return p.Ports[0]
}
