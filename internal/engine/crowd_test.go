package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vcity/internal/agents"
	"github.com/talgya/vcity/internal/entropy"
	"github.com/talgya/vcity/internal/testutil"
)

func newTestCrowd(t *testing.T, population, infected int, activity float64) (*testutil.Town, *agents.Env, *Crowd) {
	t.Helper()
	tw := testutil.NewTown(t)
	env := &agents.Env{
		City:         tw.City,
		Pool:         entropy.NewPool(2*population, 1, 1),
		StepLength:   2,
		Destinations: tw.Destinations(),
	}
	pop, err := agents.NewSpawner(3).SpawnPopulation(tw.City, tw.Homes, population, infected)
	require.NoError(t, err)
	return tw, env, NewCrowd(pop, ConstantActivity(activity), 4, 3)
}

func TestCrowdKeepsActivityLevel(t *testing.T) {
	_, env, crowd := newTestCrowd(t, 100, 0, 0.1)
	clock := NewClock(8, 20)

	arrivals := 0
	for tick := 0; tick < 400; tick++ {
		clock.Advance()
		report, err := crowd.Move(env, clock)
		require.NoError(t, err)

		assert.Equal(t, 10, report.InTransit+report.Arrived+report.Idle, "tick %d", tick)
		assert.Equal(t, report.InTransit, crowd.Transporting())

		navigating := 0
		for _, a := range crowd.Individuals {
			if a.State == agents.StateNavigating {
				navigating++
			}
		}
		assert.Equal(t, report.InTransit, navigating)
		arrivals += report.Arrived
	}
	assert.Positive(t, arrivals)
}

func TestCrowdNeverShrinksDirectly(t *testing.T) {
	_, env, crowd := newTestCrowd(t, 40, 0, 0.5)
	clock := NewClock(8, 20)

	for i := 0; i < 3; i++ {
		clock.Advance()
		_, err := crowd.Move(env, clock)
		require.NoError(t, err)
	}
	before := crowd.Transporting()
	require.Positive(t, before)

	crowd.activity = ConstantActivity(0)
	clock.Advance()
	report, err := crowd.Move(env, clock)
	require.NoError(t, err)
	assert.Zero(t, report.Promoted)
	assert.Equal(t, before, report.InTransit+report.Arrived+report.Idle)
}

func TestCrowdKeepsOccupancyConsistent(t *testing.T) {
	tw, env, crowd := newTestCrowd(t, 60, 0, 0.3)
	clock := NewClock(8, 20)

	for tick := 0; tick < 200; tick++ {
		clock.Advance()
		_, err := crowd.Move(env, clock)
		require.NoError(t, err)
	}

	booked := make(map[uint64]bool)
	for _, r := range tw.City.Leaves() {
		normal, _ := tw.City.Occupants(r)
		for _, id := range normal {
			assert.False(t, booked[id], "agent %d booked twice", id)
			booked[id] = true
		}
	}
	assert.Len(t, booked, 60)

	for _, a := range crowd.Individuals {
		normal, _ := tw.City.Occupants(a.Current)
		assert.Contains(t, normal, uint64(a.ID))
		require.NoError(t, a.CheckSettled(env))
	}
}
