// Command vcitysim builds the demo city, fills it with commuters and runs
// the infection simulation for the configured number of days.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/vcity/internal/agents"
	"github.com/talgya/vcity/internal/api"
	"github.com/talgya/vcity/internal/config"
	"github.com/talgya/vcity/internal/engine"
	"github.com/talgya/vcity/internal/entropy"
	"github.com/talgya/vcity/internal/persistence"
	"github.com/talgya/vcity/internal/world"
)

func main() {
	configPath := flag.String("config", "vcity.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func run(cfg config.Config) error {
	if cfg.Seed == 0 {
		cfg.Seed = entropy.CryptoSeed()
	}
	slog.Info("virtual city simulation", "seed", cfg.Seed, "population", cfg.Population, "days", cfg.Days)

	// ── City ──────────────────────────────────────────────────────────
	opts := world.DefaultOptions()
	opts.NoiseSeed = cfg.Seed
	opts.NoiseAmplitude = cfg.NoiseAmplitude
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}

	demo, err := buildDemoCity(opts)
	if err != nil {
		return fmt.Errorf("build city: %w", err)
	}
	if err := demo.City.VerifyDistances(); err != nil {
		return fmt.Errorf("verify distances: %w", err)
	}

	// ── Population ────────────────────────────────────────────────────
	pop, err := agents.NewSpawner(cfg.Seed).SpawnPopulation(demo.City, demo.Homes, cfg.Population, cfg.InitialInfected)
	if err != nil {
		return fmt.Errorf("spawn population: %w", err)
	}
	pool := entropy.NewPool(cfg.PoolSize, cfg.DriftSigma, cfg.Seed)
	env := &agents.Env{
		City:         demo.City,
		Pool:         pool,
		StepLength:   cfg.StepLength,
		Destinations: demo.Destinations,
	}

	// ── Simulation ────────────────────────────────────────────────────
	crowd := engine.NewCrowd(pop, cfg.Activity(), opts.Workers, cfg.Seed)
	sim := engine.NewSimulation(env, crowd, cfg.Exposure(), cfg.Seed)

	apiServer := &api.Server{Sim: sim, Port: cfg.APIPort}
	if cfg.DBPath != "" {
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err := db.StartRun(cfg.Seed, cfg.Population, cfg)
		if err != nil {
			return err
		}
		sim.OnDayEnd = rec.SaveDay
		apiServer.DB, apiServer.RunID = db, rec.ID
		slog.Info("database opened", "path", cfg.DBPath, "run", rec.ID)
	}

	eng := engine.NewEngine(engine.NewClock(cfg.DayStartHour, cfg.DayEndHour))
	eng.Interval = cfg.TickInterval
	eng.Speed = cfg.Speed
	eng.OnTick = sim.Tick
	eng.OnHour = sim.TickHour
	eng.OnDay = sim.TickDay
	apiServer.Eng = eng

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	g.Go(func() error {
		return pool.Run(runCtx, cfg.PoolRefresh)
	})
	g.Go(func() error {
		defer cancel()
		return eng.Run(cfg.Days)
	})
	if cfg.APIPort > 0 {
		g.Go(func() error {
			return apiServer.Start(runCtx)
		})
	}
	g.Go(func() error {
		<-runCtx.Done()
		if ctx.Err() != nil {
			slog.Info("received signal, shutting down")
		}
		eng.Stop()
		return nil
	})

	started := time.Now()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	summarize(sim, eng.Clock, time.Since(started))
	return nil
}

// runSummary tallies a finished run for the closing report.
type runSummary struct {
	Days          int
	Ticks         uint64
	Trips         int
	NewInfections int
	Infected      int
	Population    int
}

func summarizeRun(sim *engine.Simulation, clock engine.Clock) runSummary {
	sum := runSummary{
		Days:       len(sim.History),
		Ticks:      clock.Total,
		Population: len(sim.Crowd.Individuals),
	}
	for _, d := range sim.History {
		sum.NewInfections += d.NewInfections
	}
	for _, a := range sim.Crowd.Individuals {
		sum.Trips += a.Trips
		if a.Infected() {
			sum.Infected++
		}
	}
	return sum
}

func summarize(sim *engine.Simulation, clock engine.Clock, elapsed time.Duration) {
	sum := summarizeRun(sim, clock)
	fmt.Printf("\nSimulated %s days (%s ticks) in %s.\n",
		humanize.Comma(int64(sum.Days)), humanize.Comma(int64(sum.Ticks)), elapsed.Round(time.Millisecond))
	fmt.Printf("%s trips completed, %s new infections; %s of %s people infected at %s.\n",
		humanize.Comma(int64(sum.Trips)), humanize.Comma(int64(sum.NewInfections)),
		humanize.Comma(int64(sum.Infected)), humanize.Comma(int64(sum.Population)), clock)
}
