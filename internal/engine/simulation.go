// Simulation ties the city, the crowd and the infection pass together and
// runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/vcity/internal/agents"
	"github.com/talgya/vcity/internal/world"
)

// Simulation holds the complete run state and wires systems together.
// Only the engine goroutine may call Tick, TickHour and TickDay; other
// goroutines observe the run through Status, DayHistory and RecentEvents.
type Simulation struct {
	City       *world.City
	Env        *agents.Env
	Crowd      *Crowd
	Exposure   Exposure // nil disables infection
	AgentIndex map[agents.AgentID]*agents.Individual
	Events     []Event    // Events since the last daily report; written under mu
	History    []DayStats // written under mu
	LastClock  Clock

	// OnDayEnd receives each finished day, e.g. to persist it.
	OnDayEnd func(stats DayStats, events []Event) error

	rng    *rand.Rand
	leaves []world.RegionID
	scored [2]int // day and hour attractiveness was last computed for
	day    DayStats

	mu     sync.RWMutex
	status Status
}

// Status is a point-in-time summary of the run.
type Status struct {
	Time       string `json:"time"`
	Day        int    `json:"day"`
	Tick       uint64 `json:"tick"`
	Population int    `json:"population"`
	Infected   int    `json:"infected"`
	InTransit  int    `json:"in_transit"`
}

// Event is a notable occurrence in the run.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Day         int    `json:"day" db:"day"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "infection"
}

// DayStats aggregates one simulated day.
type DayStats struct {
	Day           int `json:"day" db:"day"`
	Ticks         int `json:"ticks" db:"ticks"`
	Population    int `json:"population" db:"population"`
	Infected      int `json:"infected" db:"infected"`
	NewInfections int `json:"new_infections" db:"new_infections"`
	Arrivals      int `json:"arrivals" db:"arrivals"`
	PeakInTransit int `json:"peak_in_transit" db:"peak_in_transit"`
}

// NewSimulation creates a Simulation over a spawned crowd.
func NewSimulation(env *agents.Env, crowd *Crowd, exposure Exposure, seed int64) *Simulation {
	index := make(map[agents.AgentID]*agents.Individual, len(crowd.Individuals))
	for _, a := range crowd.Individuals {
		index[a.ID] = a
	}
	s := &Simulation{
		City:       env.City,
		Env:        env,
		Crowd:      crowd,
		Exposure:   exposure,
		AgentIndex: index,
		rng:        rand.New(rand.NewSource(seed + 600)),
		leaves:     env.City.Leaves(),
		scored:     [2]int{-1, -1},
	}
	s.status = Status{Population: len(crowd.Individuals), Infected: s.infected()}
	return s
}

// Tick runs every tick: attractiveness, movement, then infection.
func (s *Simulation) Tick(c Clock) error {
	s.LastClock = c
	if s.scored != [2]int{c.Day, c.Hour()} {
		s.City.UpdateAttractiveness(c.Day, c.Hour())
		s.scored = [2]int{c.Day, c.Hour()}
	}

	report, err := s.Crowd.Move(s.Env, c)
	if err != nil {
		return fmt.Errorf("move crowd: %w", err)
	}
	s.day.Ticks++
	s.day.Arrivals += report.Arrived
	s.day.PeakInTransit = max(s.day.PeakInTransit, report.InTransit)

	if err := s.spread(c); err != nil {
		return fmt.Errorf("spread infection: %w", err)
	}

	s.mu.Lock()
	s.status.Time = c.String()
	s.status.Day = c.Day
	s.status.Tick = c.Total
	s.status.InTransit = report.InTransit
	s.mu.Unlock()
	return nil
}

// spread runs the exposure model over every region in turn. Each region is
// locked while its lists are read and updated.
func (s *Simulation) spread(c Clock) error {
	if s.Exposure == nil {
		return nil
	}
	for _, r := range s.leaves {
		hit, err := s.City.Expose(r, func(normal, infected []uint64) []uint64 {
			ids := s.Exposure.Expose(s.lookup(normal), s.lookup(infected), s.rng)
			out := make([]uint64, len(ids))
			for i, id := range ids {
				out[i] = uint64(id)
			}
			return out
		})
		if err != nil {
			return err
		}
		if len(hit) == 0 {
			continue
		}
		s.mu.Lock()
		for _, id := range hit {
			a := s.AgentIndex[agents.AgentID(id)]
			a.Health = agents.HealthInfected
			s.day.NewInfections++
			s.status.Infected++
			s.Events = append(s.Events, Event{
				Tick:        c.Total,
				Day:         c.Day,
				Description: fmt.Sprintf("agent %d infected in %s", id, s.City.Region(r).Name),
				Category:    "infection",
			})
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *Simulation) lookup(ids []uint64) []*agents.Individual {
	out := make([]*agents.Individual, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.AgentIndex[agents.AgentID(id)]; ok {
			out = append(out, a)
		}
	}
	return out
}

// TickHour runs whenever a new hour begins.
func (s *Simulation) TickHour(c Clock) error {
	slog.Debug("hour", "time", c.String(), "in_transit", s.Crowd.Transporting(), "infected", s.infected())
	return nil
}

// TickDay closes the books on a finished day.
func (s *Simulation) TickDay(day int) error {
	stats := s.day
	stats.Day = day
	stats.Population = len(s.Crowd.Individuals)
	stats.Infected = s.infected()
	s.mu.Lock()
	s.History = append(s.History, stats)
	s.mu.Unlock()

	slog.Info("daily report",
		"day", day+1,
		"ticks", stats.Ticks,
		"population", stats.Population,
		"infected", stats.Infected,
		"new_infections", stats.NewInfections,
		"arrivals", stats.Arrivals,
		"peak_in_transit", stats.PeakInTransit,
		"events", len(s.Events),
	)

	// Log the most recent notable events.
	recentStart := 0
	if len(s.Events) > 5 {
		recentStart = len(s.Events) - 5
	}
	for _, e := range s.Events[recentStart:] {
		slog.Info("event", "category", e.Category, "description", e.Description)
	}

	var err error
	if s.OnDayEnd != nil {
		err = s.OnDayEnd(stats, s.Events)
	}
	s.mu.Lock()
	s.Events = nil
	s.mu.Unlock()
	s.day = DayStats{}
	return err
}

// Status returns the latest run summary. Safe for concurrent use.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// DayHistory returns a copy of every finished day. Safe for concurrent use.
func (s *Simulation) DayHistory() []DayStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DayStats(nil), s.History...)
}

// RecentEvents returns up to limit of today's latest events, oldest first.
// Safe for concurrent use.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.Events)-limit, 0)
	return append([]Event(nil), s.Events[start:]...)
}

func (s *Simulation) infected() int {
	n := 0
	for _, a := range s.Crowd.Individuals {
		if a.Infected() {
			n++
		}
	}
	return n
}
