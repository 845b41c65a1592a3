// Package agents provides the individuals of the city and the navigation
// state machine that moves them hop by hop between regions.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/talgya/vcity/internal/entropy"
	"github.com/talgya/vcity/internal/world"
)

// AgentID is a unique identifier for an individual.
type AgentID uint64

// Health is the infection state of an individual.
type Health uint8

const (
	HealthNormal Health = iota
	HealthInfected
)

func (h Health) String() string {
	if h == HealthInfected {
		return "infected"
	}
	return "normal"
}

// State is the navigation state of an individual.
type State uint8

const (
	StateSettled    State = iota // Idle in Current, drifting
	StateNavigating              // Walking toward Target one port at a time
)

func (s State) String() string {
	if s == StateNavigating {
		return "navigating"
	}
	return "settled"
}

// Outcome reports what a tick did for one individual.
type Outcome uint8

const (
	OutcomeIdle      Outcome = iota // No eligible target, still settled
	OutcomeInTransit                // Moving, target not reached yet
	OutcomeArrived                  // Entered the target and settled
)

var outcomeNames = [...]string{"idle", "in_transit", "arrived"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Individual is a person moving through the city.
type Individual struct {
	ID     AgentID
	Home   world.RegionID
	Pos    orb.Point
	Health Health
	State  State

	Current  world.RegionID // region whose occupant list holds the agent
	Imagined world.RegionID // next hop while navigating, Current when settled
	Target   world.RegionID // final destination, world.NoRegion when settled
	Port     world.PortID   // port being walked to, world.NoPort when settled

	Trips int // completed trips

	rng *rand.Rand // private, so agents can move in parallel
}

// Env is the shared context individuals act in.
type Env struct {
	City         *world.City
	Pool         *entropy.Pool
	StepLength   float64
	Destinations []world.RegionID // non-residential targets; home is added per agent
}

// Infected reports whether the individual carries the infection.
func (a *Individual) Infected() bool {
	return a.Health == HealthInfected
}

func (a *Individual) String() string {
	return fmt.Sprintf("agent %d (%s, %s)", a.ID, a.State, a.Health)
}
