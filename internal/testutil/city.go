// Package testutil builds small shaped cities for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/talgya/vcity/internal/world"
)

// Town is one district: a row of 20x20 buildings standing on a 100x5
// street. Every building is connected to the street only.
//
//	y 5..25  | home0 | home1 | shop | plaza | home2 |
//	y 0..5   |              street               |
type Town struct {
	City   *world.City
	Root   world.RegionID
	Street world.RegionID
	Homes  []world.RegionID
	Shop   world.RegionID
	Plaza  world.RegionID
}

// NewTown builds and finishes a Town. Attractiveness is scored for hour 9 of
// day 0.
func NewTown(tb testing.TB) *Town {
	tb.Helper()
	opts := world.DefaultOptions()
	opts.Workers = 2
	c := world.NewCity(opts)

	tw := &Town{City: c}
	tw.Street = c.NewRegion("street", world.KindRoad, false, world.Rect(0, 100, 0, 5))
	building := func(name string, kind world.Kind, slot int) world.RegionID {
		x := float64(slot * 20)
		return c.NewRegion(name, kind, true, world.Rect(x, x+20, 5, 25))
	}
	tw.Homes = []world.RegionID{
		building("home0", world.KindResidential, 0),
		building("home1", world.KindResidential, 1),
		building("home2", world.KindResidential, 4),
	}
	tw.Shop = building("shop", world.KindBusiness, 2)
	tw.Plaza = building("plaza", world.KindSquare, 3)

	tw.Root = c.NewDistrict("town")
	members := append([]world.RegionID{tw.Street, tw.Shop, tw.Plaza}, tw.Homes...)
	must(tb, c.AddChildren(tw.Root, members...))
	for _, b := range members[1:] {
		must(tb, c.Connect(tw.Root, b, tw.Street))
	}
	must(tb, c.Finish(tw.Root))
	must(tb, c.VerifyDistances())

	c.UpdateAttractiveness(0, 9)
	return tw
}

// Destinations lists the non-residential targets of the town.
func (tw *Town) Destinations() []world.RegionID {
	return []world.RegionID{tw.Shop, tw.Plaza}
}

func must(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("building town: %v", err)
	}
}

// Name returns a region's name, for assertion messages.
func (tw *Town) Name(id world.RegionID) string {
	if r := tw.City.Region(id); r != nil {
		return r.Name
	}
	return fmt.Sprintf("region(%d)", id)
}
