// Crowd scheduling: decides who travels each tick and moves them.
package engine

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/vcity/internal/agents"
)

// ActivityFunc gives the fraction of the population that should be
// travelling at a point in time.
type ActivityFunc func(c Clock) float64

// ConstantActivity keeps the same fraction all day.
func ConstantActivity(f float64) ActivityFunc {
	return func(Clock) float64 { return f }
}

// Crowd owns the population and the set of individuals in transit.
type Crowd struct {
	Individuals []*agents.Individual

	activity ActivityFunc
	workers  int
	rng      *rand.Rand

	transporting []int // indexes into Individuals
	inTransit    []bool
}

// MoveReport summarises one scheduler tick.
type MoveReport struct {
	Promoted  int
	Arrived   int
	Idle      int // promoted but found nothing to visit
	InTransit int // still travelling after the tick
}

// NewCrowd creates a crowd where nobody is travelling yet.
func NewCrowd(pop []*agents.Individual, activity ActivityFunc, workers int, seed int64) *Crowd {
	if workers < 1 {
		workers = 1
	}
	return &Crowd{
		Individuals: pop,
		activity:    activity,
		workers:     workers,
		rng:         rand.New(rand.NewSource(seed + 500)),
		inTransit:   make([]bool, len(pop)),
	}
}

// Transporting returns how many individuals are currently in transit.
func (c *Crowd) Transporting() int {
	return len(c.transporting)
}

// Move runs one tick: settled individuals drift, idle ones are promoted
// until the travelling share matches the activity level, and every
// traveller takes a step. Arrivals leave the travelling set; it is never
// shrunk otherwise.
func (c *Crowd) Move(env *agents.Env, clock Clock) (MoveReport, error) {
	var report MoveReport

	err := c.parallel(len(c.Individuals), func(i int) error {
		if c.inTransit[i] {
			return nil
		}
		return c.Individuals[i].Drift(env)
	})
	if err != nil {
		return report, err
	}

	desired := int(c.activity(clock) * float64(len(c.Individuals)))
	if need := desired - len(c.transporting); need > 0 {
		for _, i := range c.rng.Perm(len(c.Individuals)) {
			if need == 0 {
				break
			}
			if c.inTransit[i] {
				continue
			}
			c.inTransit[i] = true
			c.transporting = append(c.transporting, i)
			report.Promoted++
			need--
		}
	}

	outcomes := make([]agents.Outcome, len(c.transporting))
	err = c.parallel(len(c.transporting), func(k int) error {
		out, err := c.Individuals[c.transporting[k]].Tick(env)
		outcomes[k] = out
		return err
	})
	if err != nil {
		return report, err
	}

	kept := c.transporting[:0]
	for k, i := range c.transporting {
		switch outcomes[k] {
		case agents.OutcomeArrived:
			report.Arrived++
			c.inTransit[i] = false
		case agents.OutcomeIdle:
			report.Idle++
			c.inTransit[i] = false
		default:
			kept = append(kept, i)
		}
	}
	c.transporting = kept
	report.InTransit = len(kept)
	return report, nil
}

// parallel runs fn for 0..n-1 across the crowd's workers. Each call may only
// touch its own individual.
func (c *Crowd) parallel(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	chunk := (n + c.workers - 1) / c.workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
