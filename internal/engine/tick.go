// Package engine provides the tick-based simulation loop, the crowd
// scheduler and the infection pass.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// TicksPerSimHour is the number of time units in one simulated hour.
const TicksPerSimHour = 360

// Clock is simulated time. Only the active window [StartHour, EndHour) of
// each day is simulated; leaving it jumps to the next day's StartHour.
type Clock struct {
	Day       int
	Unit      int    // time units since midnight
	Total     uint64 // ticks processed, never resets
	StartHour int
	EndHour   int
}

// NewClock returns a clock at the start of day 0.
func NewClock(startHour, endHour int) Clock {
	return Clock{
		Unit:      startHour * TicksPerSimHour,
		StartHour: startHour,
		EndHour:   endHour,
	}
}

// Hour returns the hour of day, 0–23.
func (c Clock) Hour() int {
	return c.Unit / TicksPerSimHour
}

// Minute returns the minute within the hour.
func (c Clock) Minute() int {
	return (c.Unit % TicksPerSimHour) * 60 / TicksPerSimHour
}

func (c Clock) String() string {
	return fmt.Sprintf("Day %d, %02d:%02d", c.Day+1, c.Hour(), c.Minute())
}

// Advance moves the clock one unit and reports whether a new hour or a new
// day began.
func (c *Clock) Advance() (newHour, newDay bool) {
	c.Total++
	c.Unit++
	if c.Unit >= c.EndHour*TicksPerSimHour {
		c.Day++
		c.Unit = c.StartHour * TicksPerSimHour
		return true, true
	}
	return c.Unit%TicksPerSimHour == 0, false
}

// Engine drives the simulation forward.
type Engine struct {
	Clock    Clock
	Speed    float64       // Multiplier on the pace set by Interval
	Interval time.Duration // Wall time per tick at speed 1; 0 runs flat out

	stopped atomic.Bool

	// Callbacks for each tick layer, populated during setup.
	OnTick func(c Clock) error // Every tick
	OnHour func(c Clock) error // Whenever a new hour begins
	OnDay  func(day int) error // With the day that just ended
}

// NewEngine creates an engine with an unpaced default speed.
func NewEngine(clock Clock) *Engine {
	return &Engine{
		Clock: clock,
		Speed: 1.0,
	}
}

// Run steps the simulation until days full days have ended or Stop is
// called. A non-positive days runs until Stop. The first callback error
// ends the run and is returned.
func (e *Engine) Run(days int) error {
	slog.Info("simulation engine started", "time", e.Clock.String(), "speed", e.Speed, "days", days)

	startDay := e.Clock.Day
	for !e.stopped.Load() && (days <= 0 || e.Clock.Day-startDay < days) {
		start := time.Now()

		if err := e.step(); err != nil {
			return err
		}

		if e.Interval > 0 && e.Speed > 0 {
			target := time.Duration(float64(e.Interval) / e.Speed)
			if elapsed := time.Since(start); elapsed < target {
				time.Sleep(target - elapsed)
			}
		}
	}

	slog.Info("simulation engine stopped", "time", e.Clock.String(), "ticks", e.Clock.Total)
	return nil
}

// Stop makes Run return after the tick in progress. Safe to call from any
// goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// step advances the simulation by one tick.
func (e *Engine) step() error {
	newHour, newDay := e.Clock.Advance()

	if newDay && e.OnDay != nil {
		if err := e.OnDay(e.Clock.Day - 1); err != nil {
			return fmt.Errorf("end of day %d: %w", e.Clock.Day, err)
		}
	}
	if newHour && e.OnHour != nil {
		if err := e.OnHour(e.Clock); err != nil {
			return fmt.Errorf("%s: %w", e.Clock, err)
		}
	}
	if e.OnTick != nil {
		if err := e.OnTick(e.Clock); err != nil {
			return fmt.Errorf("%s: %w", e.Clock, err)
		}
	}
	return nil
}
