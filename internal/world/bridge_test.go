package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgedDistrictDistance(t *testing.T) {
	c, ids := bridgedCity(t)

	fromE, err := c.AccessibleFrom(ids["E"])
	require.NoError(t, err)
	assert.Equal(t, 3, fromE[ids["C"]])
	assert.Equal(t, 2, fromE[ids["B"]])
	assert.Equal(t, 2, fromE[ids["D"]])
	assert.Equal(t, 1, fromE[ids["A"]])
	require.NoError(t, c.VerifyDistances())
}

func TestBridgeAddsOneHop(t *testing.T) {
	c, ids := bridgedCity(t)

	for _, name := range []string{"A", "B", "C", "D"} {
		got, err := c.AccessibleFrom(ids[name])
		require.NoError(t, err)
		if name == "A" {
			assert.Equal(t, 1, got[ids["E"]])
			continue
		}
		assert.Equal(t, got[ids["A"]]+1, got[ids["E"]], "from %s", name)
	}
}

func TestBridgeReachesNonAdjacentSiblings(t *testing.T) {
	c := newTestCity(t)
	d1, sq := cycleDistrict(t, c, "D1")
	d2, line := lineDistrict(t, c, "D2", []string{"E", "F", "G"})
	d3, tail := lineDistrict(t, c, "D3", []string{"H", "I"})

	top := c.NewDistrict("top")
	require.NoError(t, c.AddChildren(top, d1, d2, d3))
	require.NoError(t, c.Connect(top, sq["A"], line["E"]))
	require.NoError(t, c.Connect(top, line["G"], tail["H"]))
	require.NoError(t, c.Finish(top))

	fromC, err := c.AccessibleFrom(sq["C"])
	require.NoError(t, err)
	assert.Equal(t, 3, fromC[line["E"]])
	assert.Equal(t, 5, fromC[line["G"]])
	assert.Equal(t, 7, fromC[tail["I"]])

	fromI, err := c.AccessibleFrom(tail["I"])
	require.NoError(t, err)
	assert.Equal(t, 7, fromI[sq["C"]])
	require.NoError(t, c.VerifyDistances())

	// A second bridge closes a loop through all three districts.
	require.NoError(t, c.Connect(top, sq["C"], tail["I"]))
	fromC, err = c.AccessibleFrom(sq["C"])
	require.NoError(t, err)
	assert.Equal(t, 1, fromC[tail["I"]])
	assert.Equal(t, 3, fromC[line["G"]])

	fromF, err := c.AccessibleFrom(line["F"])
	require.NoError(t, err)
	assert.Equal(t, 4, fromF[sq["C"]], "F-E-A-B-C and F-G-H-I-C tie")
	require.NoError(t, c.VerifyDistances())
}

func TestChordInFinishedDistrict(t *testing.T) {
	c := newTestCity(t)
	d, ids := cycleDistrict(t, c, "D1")

	require.NoError(t, c.Connect(d, ids["A"], ids["C"]))

	fromA, err := c.AccessibleFrom(ids["A"])
	require.NoError(t, err)
	assert.Equal(t, 1, fromA[ids["C"]])
	fromB, err := c.AccessibleFrom(ids["B"])
	require.NoError(t, err)
	assert.Equal(t, 2, fromB[ids["D"]])
	require.NoError(t, c.VerifyDistances())
}

func TestBridgeUpdatesOnlyReadsCaches(t *testing.T) {
	c := newTestCity(t)
	d1, sq := cycleDistrict(t, c, "D1")
	e := c.NewAbstractRegion("E", true)
	top := c.NewDistrict("top")
	require.NoError(t, c.AddChildren(top, d1, e))

	before := snapshotCaches(c)
	p := &Protocol{ID: ProtocolID(len(c.protocols)), Regions: [2]RegionID{sq["A"], e}}
	updates := c.bridgeUpdates(p)
	assert.Equal(t, before, snapshotCaches(c))

	seen := make(map[cacheUpdate]bool, len(updates))
	for _, u := range updates {
		seen[u] = true
		assert.NotEqual(t, u.Region, u.Target)
	}
	assert.True(t, seen[cacheUpdate{Region: e, Protocol: p.ID, Target: sq["C"], Distance: 3}])
	assert.True(t, seen[cacheUpdate{Region: sq["A"], Protocol: p.ID, Target: e, Distance: 1}])
	assert.True(t, seen[cacheUpdate{Region: sq["C"], Protocol: c.Region(sq["C"]).Protocols()[0], Target: e, Distance: 3}])
}

func TestApplyUpdatesKeepsMinimum(t *testing.T) {
	c := newTestCity(t)
	_, ids := lineDistrict(t, c, "d", []string{"A", "B"})
	a := c.Region(ids["A"])
	pid := a.Protocols()[0]

	c.applyUpdates([]cacheUpdate{
		{Region: a.ID, Protocol: pid, Target: 77, Distance: 5},
		{Region: a.ID, Protocol: pid, Target: 77, Distance: 3},
		{Region: a.ID, Protocol: pid, Target: 77, Distance: 4},
		{Region: a.ID, Protocol: pid, Target: ids["B"], Distance: 9},
	})
	assert.Equal(t, 3, a.cache[pid][77])
	assert.Equal(t, 1, a.cache[pid][ids["B"]])
}

func snapshotCaches(c *City) map[RegionID]map[ProtocolID]map[RegionID]int {
	out := make(map[RegionID]map[ProtocolID]map[RegionID]int)
	for _, r := range c.regions {
		if r.cache == nil {
			continue
		}
		tables := make(map[ProtocolID]map[RegionID]int, len(r.cache))
		for pid, table := range r.cache {
			cp := make(map[RegionID]int, len(table))
			for k, v := range table {
				cp[k] = v
			}
			tables[pid] = cp
		}
		out[r.ID] = tables
	}
	return out
}
