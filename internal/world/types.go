// Package world provides the hierarchical connectivity graph of the city:
// regions nested in districts, the protocols and ports that link them, and
// address-based routing between any two leaf regions.
package world

import (
	"errors"
	"fmt"
)

// RegionID indexes a region (leaf or district) in its City.
type RegionID int64

// ProtocolID indexes a protocol in its City.
type ProtocolID int64

// PortID indexes a port in its City.
type PortID int64

// NoRegion is the parent of a region that has not been placed in a district.
const NoRegion RegionID = -1

// NoProtocol excludes nothing when passed as an origin protocol.
const NoProtocol ProtocolID = -1

// Kind classifies a region for targeting and attractiveness.
type Kind uint8

const (
	KindGeneric     Kind = iota // Abstract node, graph-only
	KindRoad                    // Connective tissue, never a destination
	KindResidential             // Homes
	KindBusiness                // Shops and workplaces
	KindSquare                  // Public squares
)

var kindNames = [...]string{"generic", "road", "residential", "business", "square"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Targetable reports whether regions of this kind count themselves as
// reachable destinations.
func (k Kind) Targetable() bool {
	return k != KindRoad
}

// IsBuilding reports whether the kind is something agents visit.
func (k Kind) IsBuilding() bool {
	return k == KindResidential || k == KindBusiness || k == KindSquare
}

// NodeKind tags a region as a leaf or as a container of other regions.
type NodeKind uint8

const (
	NodeLeaf NodeKind = iota
	NodeDistrict
)

// Error classes. Every error returned by this package wraps exactly one.
var (
	// ErrConstruction covers misuse of the build API: self connections,
	// non-root endpoints, unfinished prerequisites, re-finalizing.
	ErrConstruction = errors.New("construction error")

	// ErrRouting means no port exists between regions assumed connected.
	ErrRouting = errors.New("routing error")

	// ErrInvariant means occupancy bookkeeping disagrees with reality.
	ErrInvariant = errors.New("invariant violation")
)

func constructionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstruction, fmt.Sprintf(format, args...))
}

func routingf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRouting, fmt.Sprintf(format, args...))
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
