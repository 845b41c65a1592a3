package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	c, ids := bridgedCity(t)

	addr := c.Address(ids["C"])
	assert.Equal(t, Address{ids["C"], ids["D1"], ids["top"]}, addr)
	assert.Equal(t, "C->D1->top", addr.Format(c))
	assert.Equal(t, "E->E*->top", c.Address(ids["E"]).Format(c))
}

func TestFindPortRouteHasNoRevisits(t *testing.T) {
	c, ids := bridgedCity(t)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		cur := ids["C"]
		visited := map[RegionID]bool{cur: true}
		hops := 0
		for cur != ids["E"] {
			port, err := c.FindPort(cur, ids["E"], rng)
			require.NoError(t, err)
			next := c.Port(port).Owner
			require.False(t, visited[next], "route revisits %s", c.Region(next))
			visited[next] = true
			cur = next
			hops++
		}
		assert.Equal(t, 3, hops)
	}
}

func TestFindPortBreaksTies(t *testing.T) {
	c, ids := bridgedCity(t)

	owners := make(map[RegionID]bool)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		port, err := c.FindPort(ids["C"], ids["E"], rng)
		require.NoError(t, err)
		owners[c.Port(port).Owner] = true
	}
	assert.Equal(t, map[RegionID]bool{ids["B"]: true, ids["D"]: true}, owners)

	port, err := c.FindPort(ids["C"], ids["E"], nil)
	require.NoError(t, err)
	assert.Equal(t, ids["B"], c.Port(port).Owner, "nil rng takes the first protocol")
}

func TestFindPortFallsBackToUpperLevel(t *testing.T) {
	c := newTestCity(t)
	d1, sq := cycleDistrict(t, c, "D1")
	d2, line := lineDistrict(t, c, "D2", []string{"E", "F"})
	top := c.NewDistrict("top")
	require.NoError(t, c.AddChildren(top, d1, d2))
	require.NoError(t, c.Connect(top, sq["A"], line["E"]))
	require.NoError(t, c.Finish(top))

	// Forget F at the leaf level so only the district level knows the way.
	cr := c.Region(sq["C"])
	for _, pid := range cr.protocols {
		delete(cr.cache[pid], line["F"])
	}

	port, err := c.FindPort(sq["C"], line["F"], nil)
	require.NoError(t, err)
	owner := c.Port(port).Owner
	assert.Contains(t, []RegionID{sq["B"], sq["D"]}, owner)
}

func TestFindPortErrors(t *testing.T) {
	c, ids := bridgedCity(t)

	_, err := c.FindPort(ids["A"], ids["A"], nil)
	assert.ErrorIs(t, err, ErrRouting)

	_, err = c.FindPort(ids["A"], ids["D1"], nil)
	assert.ErrorIs(t, err, ErrRouting)

	lone := c.NewAbstractRegion("lone", true)
	d := c.NewDistrict("island")
	require.NoError(t, c.AddChildren(d, lone, c.NewAbstractRegion("shore", true)))
	require.NoError(t, c.Finish(d))
	_, err = c.FindPort(ids["A"], lone, nil)
	assert.ErrorIs(t, err, ErrRouting)

	shore, ok := c.Child(d, "shore")
	require.True(t, ok)
	_, err = c.FindPort(lone, shore, nil)
	assert.ErrorIs(t, err, ErrRouting)
}
