// Individual behaviour: choosing a target, walking port to port, and
// drifting while settled.
package agents

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/talgya/vcity/internal/world"
)

// maxPullSteps bounds how often drift pulls an agent toward the centre
// before snapping it there.
const maxPullSteps = 20

// Tick advances the individual by one time unit. A settled individual first
// picks a target; if nothing is worth visiting it stays put.
func (a *Individual) Tick(env *Env) (Outcome, error) {
	if a.State == StateSettled {
		target, ok := a.chooseTarget(env)
		if !ok {
			return OutcomeIdle, nil
		}
		started, err := a.SetTarget(env, target)
		if err != nil {
			return OutcomeIdle, err
		}
		if !started {
			return OutcomeIdle, nil
		}
	}
	return a.advance(env)
}

// SetTarget starts navigation toward target and reports whether it did.
// Asking for the current region is refused and leaves the agent settled.
func (a *Individual) SetTarget(env *Env, target world.RegionID) (bool, error) {
	if target == a.Current {
		return false, nil
	}
	port, err := env.City.FindPort(a.Current, target, a.rng)
	if err != nil {
		return false, fmt.Errorf("%v heading for %s: %w", a, env.City.Region(target), err)
	}
	a.Target = target
	a.Port = port
	a.Imagined = env.City.Port(port).Owner
	a.State = StateNavigating
	return true, nil
}

// advance walks toward the current port and books the agent into the next
// region once it is inside.
func (a *Individual) advance(env *Env) (Outcome, error) {
	city := env.City
	next := city.Region(a.Imagined)
	if !next.Contains(a.Pos) {
		a.stepToward(city.Port(a.Port).Pos, env.StepLength)
		if !next.Contains(a.Pos) {
			return OutcomeInTransit, nil
		}
	}

	if err := city.MoveOccupant(a.Current, a.Imagined, uint64(a.ID), a.Infected()); err != nil {
		return OutcomeInTransit, err
	}
	a.Current = a.Imagined

	if a.Current == a.Target {
		a.settle()
		return OutcomeArrived, nil
	}

	port, err := city.FindPort(a.Current, a.Target, a.rng)
	if err != nil {
		return OutcomeInTransit, fmt.Errorf("%v in %s: %w", a, city.Region(a.Current), err)
	}
	a.Port = port
	a.Imagined = city.Port(port).Owner
	return OutcomeInTransit, nil
}

func (a *Individual) settle() {
	a.State = StateSettled
	a.Imagined = a.Current
	a.Target = world.NoRegion
	a.Port = world.NoPort
	a.Trips++
}

// stepToward moves one step along the straight line to p, landing on p when
// it is closer than a step.
func (a *Individual) stepToward(p orb.Point, step float64) {
	dx, dy := p[0]-a.Pos[0], p[1]-a.Pos[1]
	dist := math.Hypot(dx, dy)
	if dist <= step {
		a.Pos = p
		return
	}
	a.Pos[0] += dx / dist * step
	a.Pos[1] += dy / dist * step
}

// chooseTarget draws a destination weighted by attractiveness among the
// shared destinations and the agent's home, never the current region.
func (a *Individual) chooseTarget(env *Env) (world.RegionID, bool) {
	weight := func(id world.RegionID) float64 {
		if id == a.Current {
			return 0
		}
		return env.City.Region(id).Attractiveness()
	}

	total := weight(a.Home)
	for _, id := range env.Destinations {
		total += weight(id)
	}
	if total <= 0 {
		return world.NoRegion, false
	}

	r := a.rng.Float64() * total
	for _, id := range env.Destinations {
		w := weight(id)
		if r < w {
			return id, true
		}
		r -= w
	}
	if weight(a.Home) > 0 {
		return a.Home, true
	}
	// Rounding left r past the last bucket; take the last weighted one.
	for i := len(env.Destinations) - 1; i >= 0; i-- {
		if weight(env.Destinations[i]) > 0 {
			return env.Destinations[i], true
		}
	}
	return world.NoRegion, false
}

// Drift nudges a settled agent by its pair from the shared pool and pulls it
// back toward the centre of its region so it never wanders out.
func (a *Individual) Drift(env *Env) error {
	if a.State != StateSettled {
		return nil
	}
	region := env.City.Region(a.Current)
	if !region.Shaped {
		return nil
	}

	dx, dy := env.Pool.Pair(uint64(a.ID))
	a.Pos[0] += dx
	a.Pos[1] += dy

	center := region.Center()
	w, h := region.Bounds.Max[0]-region.Bounds.Min[0], region.Bounds.Max[1]-region.Bounds.Min[1]
	a.Pos = pull(a.Pos, center, math.Min(1, 2/w), math.Min(1, 2/h))
	for i := 0; i < maxPullSteps && !region.Contains(a.Pos); i++ {
		a.Pos = pull(a.Pos, center, math.Min(1, 10/w), math.Min(1, 10/h))
	}
	if !region.Contains(a.Pos) {
		a.Pos = center
	}
	return a.CheckSettled(env)
}

// CheckSettled verifies that a settled agent stands in the region it is
// booked in.
func (a *Individual) CheckSettled(env *Env) error {
	if a.State != StateSettled {
		return nil
	}
	region := env.City.Region(a.Current)
	if region.Shaped && !region.Contains(a.Pos) {
		return fmt.Errorf("%w: %v at %v is outside %s", world.ErrInvariant, a, a.Pos, region)
	}
	return nil
}

func pull(p, to orb.Point, fx, fy float64) orb.Point {
	return orb.Point{p[0] + (to[0]-p[0])*fx, p[1] + (to[1]-p[1])*fy}
}
