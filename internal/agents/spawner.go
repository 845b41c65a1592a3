// Agent spawning: creates the initial population at home and books each
// individual into its home's occupant list.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/talgya/vcity/internal/world"
)

// homeTries bounds rejection sampling of a starting position.
const homeTries = 100

// Spawner creates individuals for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed + 300)),
	}
}

// Spawn creates one settled individual at a random spot in home.
func (s *Spawner) Spawn(city *world.City, home world.RegionID, infected bool) (*Individual, error) {
	region := city.Region(home)
	if region == nil || region.IsDistrict() {
		return nil, fmt.Errorf("spawn: %d is not a leaf region", home)
	}

	a := &Individual{
		ID:       s.nextID,
		Home:     home,
		Pos:      s.homeLocation(region),
		Current:  home,
		Imagined: home,
		Target:   world.NoRegion,
		Port:     world.NoPort,
		rng:      rand.New(rand.NewSource(s.rng.Int63())),
	}
	if infected {
		a.Health = HealthInfected
	}
	if err := city.AddOccupant(home, uint64(a.ID), infected); err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}
	s.nextID++
	return a, nil
}

// SpawnPopulation creates count individuals with homes drawn uniformly from
// homes. The first infected of them start infected.
func (s *Spawner) SpawnPopulation(city *world.City, homes []world.RegionID, count, infected int) ([]*Individual, error) {
	if len(homes) == 0 {
		return nil, fmt.Errorf("spawn: no homes to place %d individuals in", count)
	}
	out := make([]*Individual, 0, count)
	for i := 0; i < count; i++ {
		a, err := s.Spawn(city, homes[s.rng.Intn(len(homes))], i < infected)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// homeLocation samples a gaussian around the centre with a sixth of the
// side as deviation, falling back to the centre.
func (s *Spawner) homeLocation(r *world.Region) orb.Point {
	center := r.Center()
	if !r.Shaped {
		return center
	}
	sx := (r.Bounds.Max[0] - r.Bounds.Min[0]) / 6
	sy := (r.Bounds.Max[1] - r.Bounds.Min[1]) / 6
	for i := 0; i < homeTries; i++ {
		p := orb.Point{center[0] + s.rng.NormFloat64()*sx, center[1] + s.rng.NormFloat64()*sy}
		if r.Contains(p) {
			return p
		}
	}
	return center
}
