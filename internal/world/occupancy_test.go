package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupantBookkeeping(t *testing.T) {
	c := newTestCity(t)
	a := c.NewAbstractRegion("a", true)
	b := c.NewAbstractRegion("b", true)

	require.NoError(t, c.AddOccupant(a, 1, false))
	require.NoError(t, c.AddOccupant(a, 2, true))
	assert.ErrorIs(t, c.AddOccupant(a, 1, false), ErrInvariant)

	require.NoError(t, c.MoveOccupant(a, b, 1, false))
	require.NoError(t, c.MoveOccupant(b, b, 1, false))

	normal, infected := c.Occupants(a)
	assert.Empty(t, normal)
	assert.Equal(t, []uint64{2}, infected)
	normal, _ = c.Occupants(b)
	assert.Equal(t, []uint64{1}, normal)

	assert.ErrorIs(t, c.MoveOccupant(a, b, 1, false), ErrInvariant)
	assert.ErrorIs(t, c.MoveOccupant(a, b, 2, false), ErrInvariant, "health must match the list")
}

func TestConcurrentMovesKeepCounts(t *testing.T) {
	c := newTestCity(t)
	a := c.NewAbstractRegion("a", true)
	b := c.NewAbstractRegion("b", true)

	const agents = 64
	for i := uint64(0); i < agents; i++ {
		require.NoError(t, c.AddOccupant(a, i, i%4 == 0))
	}

	var wg sync.WaitGroup
	errs := make(chan error, agents)
	for i := uint64(0); i < agents; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			from, to := a, b
			for round := 0; round < 10; round++ {
				if err := c.MoveOccupant(from, to, id, id%4 == 0); err != nil {
					errs <- err
					return
				}
				from, to = to, from
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	normal, infected := c.Occupants(a)
	assert.Len(t, normal, agents*3/4)
	assert.Len(t, infected, agents/4)
	normal, infected = c.Occupants(b)
	assert.Empty(t, normal)
	assert.Empty(t, infected)
}

func TestExpose(t *testing.T) {
	c := newTestCity(t)
	a := c.NewAbstractRegion("a", true)
	require.NoError(t, c.AddOccupant(a, 1, false))
	require.NoError(t, c.AddOccupant(a, 2, false))

	called := false
	hit, err := c.Expose(a, func(normal, infected []uint64) []uint64 {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, hit)
	assert.False(t, called, "nobody to catch anything from")

	require.NoError(t, c.AddOccupant(a, 3, true))
	hit, err = c.Expose(a, func(normal, infected []uint64) []uint64 {
		assert.Equal(t, []uint64{1, 2}, normal)
		assert.Equal(t, []uint64{3}, infected)
		return []uint64{2}
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, hit)

	normal, infected := c.Occupants(a)
	assert.Equal(t, []uint64{1}, normal)
	assert.Equal(t, []uint64{2, 3}, infected)

	_, err = c.Expose(a, func(normal, infected []uint64) []uint64 { return []uint64{9} })
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestOccupantsAreSorted(t *testing.T) {
	c := newTestCity(t)
	a := c.NewAbstractRegion("a", true)
	for _, id := range []uint64{42, 7, 19, 3, 100, 8} {
		require.NoError(t, c.AddOccupant(a, id, id%2 == 0))
	}

	normal, infected := c.Occupants(a)
	assert.Equal(t, []uint64{3, 7, 19}, normal)
	assert.Equal(t, []uint64{8, 42, 100}, infected)
}
