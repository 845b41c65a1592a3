package main

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/talgya/vcity/internal/world"
)

// lot is one building along a block's street.
type lot struct {
	name string
	kind world.Kind
}

// demoCity is the built demo layout with the lists the simulation needs.
type demoCity struct {
	City         *world.City
	Root         world.RegionID
	Homes        []world.RegionID
	Destinations []world.RegionID
}

// buildDemoCity lays out three blocks of 20x20 lots on 100x5 streets, a
// north-south avenue joining them, and a plaza east of the avenue:
//
//	y 100..125  north block (lots above its street)
//	y  40..90   plaza, x 105..205
//	y   0..25   west block x 0..100 | avenue x 100..105 | east block x 105..205
func buildDemoCity(opts world.Options) (*demoCity, error) {
	c := world.NewCity(opts)

	west, westStreet, err := buildBlock(c, "west", 0, 0, []lot{
		{"west-house-1", world.KindResidential},
		{"west-house-2", world.KindResidential},
		{"bakery", world.KindBusiness},
		{"west-house-3", world.KindResidential},
		{"west-house-4", world.KindResidential},
	})
	if err != nil {
		return nil, err
	}
	east, eastStreet, err := buildBlock(c, "east", 105, 0, []lot{
		{"east-house-1", world.KindResidential},
		{"office", world.KindBusiness},
		{"east-house-2", world.KindResidential},
		{"east-house-3", world.KindResidential},
		{"clinic", world.KindBusiness},
	})
	if err != nil {
		return nil, err
	}
	north, northStreet, err := buildBlock(c, "north", 0, 100, []lot{
		{"north-house-1", world.KindResidential},
		{"north-house-2", world.KindResidential},
		{"north-house-3", world.KindResidential},
		{"school", world.KindBusiness},
		{"north-house-4", world.KindResidential},
	})
	if err != nil {
		return nil, err
	}

	avenue := c.NewRegion("avenue", world.KindRoad, false, world.Rect(100, 105, 0, 130))
	plaza := c.NewRegion("plaza", world.KindSquare, true, world.Rect(105, 205, 40, 90))

	root := c.NewDistrict("city")
	if err := c.AddChildren(root, west, east, north, avenue, plaza); err != nil {
		return nil, err
	}
	for _, leaf := range []world.RegionID{westStreet, eastStreet, northStreet, plaza} {
		if err := c.Connect(root, leaf, avenue); err != nil {
			return nil, err
		}
	}
	if err := c.Finish(root); err != nil {
		return nil, err
	}

	d := &demoCity{
		City:         c,
		Root:         root,
		Homes:        c.RegionsOfKind(world.KindResidential),
		Destinations: c.RegionsOfKind(world.KindBusiness, world.KindSquare),
	}
	slog.Info("city built",
		"regions", c.NumRegions(),
		"leaves", len(c.Leaves()),
		"homes", len(d.Homes),
		"destinations", len(d.Destinations),
		"bounds", c.Region(root).Bounds,
	)
	return d, nil
}

// buildBlock creates a finished district: a 100x5 street at (x, y) with
// up to five 20x20 lots standing on it, each connected to the street.
func buildBlock(c *world.City, name string, x, y float64, lots []lot) (district, street world.RegionID, err error) {
	street = c.NewRegion(name+"-street", world.KindRoad, false, world.Rect(x, x+100, y, y+5))
	members := []world.RegionID{street}
	for i, l := range lots {
		lx := x + float64(i)*20
		members = append(members, c.NewRegion(l.name, l.kind, true, lotBounds(lx, y+5)))
	}

	district = c.NewDistrict(name)
	if err := c.AddChildren(district, members...); err != nil {
		return world.NoRegion, world.NoRegion, fmt.Errorf("block %s: %w", name, err)
	}
	for _, b := range members[1:] {
		if err := c.Connect(district, b, street); err != nil {
			return world.NoRegion, world.NoRegion, fmt.Errorf("block %s: %w", name, err)
		}
	}
	if err := c.Finish(district); err != nil {
		return world.NoRegion, world.NoRegion, fmt.Errorf("block %s: %w", name, err)
	}
	return district, street, nil
}

func lotBounds(x, y float64) orb.Bound {
	return world.Rect(x, x+20, y, y+20)
}
