package agents

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vcity/internal/entropy"
	"github.com/talgya/vcity/internal/testutil"
	"github.com/talgya/vcity/internal/world"
)

func newTestEnv(t *testing.T) (*testutil.Town, *Env) {
	t.Helper()
	tw := testutil.NewTown(t)
	return tw, &Env{
		City:         tw.City,
		Pool:         entropy.NewPool(64, 1, 1),
		StepLength:   1,
		Destinations: tw.Destinations(),
	}
}

func spawnAt(t *testing.T, env *Env, home world.RegionID) *Individual {
	t.Helper()
	a, err := NewSpawner(1).Spawn(env.City, home, false)
	require.NoError(t, err)
	return a
}

func TestTickWalksToTarget(t *testing.T) {
	tw, env := newTestEnv(t)
	a := spawnAt(t, env, tw.Homes[0])

	started, err := a.SetTarget(env, tw.Shop)
	require.NoError(t, err)
	require.True(t, started)
	assert.Equal(t, StateNavigating, a.State)
	assert.Equal(t, tw.Street, a.Imagined)

	visited := []world.RegionID{a.Current}
	var out Outcome
	for i := 0; i < 500 && out != OutcomeArrived; i++ {
		out, err = a.Tick(env)
		require.NoError(t, err)
		if visited[len(visited)-1] != a.Current {
			visited = append(visited, a.Current)
		}
	}

	require.Equal(t, OutcomeArrived, out)
	assert.Equal(t, []world.RegionID{tw.Homes[0], tw.Street, tw.Shop}, visited)
	assert.Equal(t, StateSettled, a.State)
	assert.Equal(t, tw.Shop, a.Current)
	assert.Equal(t, tw.Shop, a.Imagined)
	assert.Equal(t, world.NoRegion, a.Target)
	assert.Equal(t, world.NoPort, a.Port)
	assert.Equal(t, 1, a.Trips)
	assert.True(t, env.City.Region(tw.Shop).Contains(a.Pos))
	require.NoError(t, a.CheckSettled(env))

	normal, _ := env.City.Occupants(tw.Shop)
	assert.Equal(t, []uint64{uint64(a.ID)}, normal)
	normal, _ = env.City.Occupants(tw.Homes[0])
	assert.Empty(t, normal)
}

func TestTargetIsCurrentNeverNavigates(t *testing.T) {
	tw, env := newTestEnv(t)
	a := spawnAt(t, env, tw.Homes[0])

	started, err := a.SetTarget(env, tw.Homes[0])
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, StateSettled, a.State)
	assert.Equal(t, world.NoRegion, a.Target)

	env.Destinations = nil
	for i := 0; i < 10; i++ {
		out, err := a.Tick(env)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIdle, out)
		assert.Equal(t, StateSettled, a.State)
	}
}

func TestChooseTargetFollowsAttractiveness(t *testing.T) {
	tw, env := newTestEnv(t)
	a := spawnAt(t, env, tw.Homes[0])

	counts := make(map[world.RegionID]int)
	for i := 0; i < 2600; i++ {
		target, ok := a.chooseTarget(env)
		require.True(t, ok)
		counts[target]++
	}
	assert.Zero(t, counts[tw.Homes[0]], "never the current region")
	// At 09:00 the shop scores 10 and the plaza 3.
	assert.InDelta(t, 2000, counts[tw.Shop], 150)
	assert.InDelta(t, 600, counts[tw.Plaza], 150)

	a.Current = tw.Shop
	counts = make(map[world.RegionID]int)
	for i := 0; i < 400; i++ {
		target, ok := a.chooseTarget(env)
		require.True(t, ok)
		counts[target]++
	}
	assert.Zero(t, counts[tw.Shop])
	assert.Positive(t, counts[tw.Homes[0]])
}

func TestDriftStaysInRegion(t *testing.T) {
	tw, env := newTestEnv(t)
	env.Pool = entropy.NewPool(64, 8, 3)
	a := spawnAt(t, env, tw.Homes[1])
	home := env.City.Region(tw.Homes[1])

	for i := 0; i < 1000; i++ {
		if i%7 == 0 {
			env.Pool.Refresh()
		}
		require.NoError(t, a.Drift(env))
		require.True(t, home.Contains(a.Pos), "drifted to %v", a.Pos)
	}
}

func TestDriftIgnoresNavigatingAgents(t *testing.T) {
	tw, env := newTestEnv(t)
	a := spawnAt(t, env, tw.Homes[0])
	_, err := a.SetTarget(env, tw.Plaza)
	require.NoError(t, err)

	before := a.Pos
	require.NoError(t, a.Drift(env))
	assert.Equal(t, before, a.Pos)
}

func TestCheckSettled(t *testing.T) {
	tw, env := newTestEnv(t)
	a := spawnAt(t, env, tw.Homes[0])

	require.NoError(t, a.CheckSettled(env))
	a.Pos = orb.Point{500, 500}
	assert.ErrorIs(t, a.CheckSettled(env), world.ErrInvariant)
}

func TestStepToward(t *testing.T) {
	a := &Individual{Pos: orb.Point{0, 0}}
	a.stepToward(orb.Point{3, 4}, 1)
	assert.InDelta(t, 0.6, a.Pos[0], 1e-9)
	assert.InDelta(t, 0.8, a.Pos[1], 1e-9)

	a.stepToward(orb.Point{1, 1}, 5)
	assert.Equal(t, orb.Point{1, 1}, a.Pos)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "arrived", OutcomeArrived.String())
	assert.Equal(t, "in_transit", OutcomeInTransit.String())
	assert.Equal(t, "navigating", StateNavigating.String())
	assert.Equal(t, "infected", HealthInfected.String())
}
