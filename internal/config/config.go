// Package config loads the simulation settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/vcity/internal/engine"
)

// Config holds every setting for one simulation run.
type Config struct {
	Seed int64 `yaml:"seed"`
	Days int   `yaml:"days"` // 0 runs until interrupted

	// Clock
	DayStartHour int           `yaml:"day_start_hour"`
	DayEndHour   int           `yaml:"day_end_hour"`
	TickInterval time.Duration `yaml:"tick_interval"` // 0 runs flat out
	Speed        float64       `yaml:"speed"`

	// Population
	Population      int     `yaml:"population"`
	InitialInfected int     `yaml:"initial_infected"`
	StepLength      float64 `yaml:"step_length"`
	Workers         int     `yaml:"workers"` // 0 uses every CPU

	// Drift pool
	PoolSize    int           `yaml:"pool_size"`
	DriftSigma  float64       `yaml:"drift_sigma"`
	PoolRefresh time.Duration `yaml:"pool_refresh"`

	Transport TransportConfig `yaml:"transport"`
	Virus     VirusConfig     `yaml:"virus"`

	NoiseAmplitude float64 `yaml:"noise_amplitude"` // 0 disables attractiveness noise

	// Output
	DBPath   string `yaml:"db_path"`  // empty disables recording
	APIPort  int    `yaml:"api_port"` // 0 disables the HTTP API
	LogLevel string `yaml:"log_level"`
}

// TransportConfig sets the share of the population travelling at once.
type TransportConfig struct {
	Default float64         `yaml:"default"`
	Windows []ActivityEntry `yaml:"windows"`
}

// ActivityEntry overrides the default share for hours [From, To).
type ActivityEntry struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	Fraction float64 `yaml:"fraction"`
}

// VirusConfig parameterises the proximity exposure model.
type VirusConfig struct {
	Distance float64 `yaml:"distance"`
	Risk     float64 `yaml:"risk"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Seed:            1,
		Days:            3,
		DayStartHour:    8,
		DayEndHour:      20,
		Speed:           1.0,
		Population:      300,
		InitialInfected: 5,
		StepLength:      1,
		PoolSize:        600,
		DriftSigma:      0.5,
		PoolRefresh:     time.Millisecond,
		Transport: TransportConfig{
			Default: 0.1,
		},
		Virus: VirusConfig{
			Distance: engine.DefaultExposure.Distance,
			Risk:     engine.DefaultExposure.Risk,
		},
		LogLevel: "info",
	}
}

// Load loads config from a YAML file over the defaults.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DayStartHour < 0 || c.DayEndHour > 24 || c.DayStartHour >= c.DayEndHour {
		errs = append(errs, fmt.Errorf("day window [%d, %d) is not inside a day", c.DayStartHour, c.DayEndHour))
	}
	if c.Days < 0 {
		errs = append(errs, fmt.Errorf("days must not be negative, got %d", c.Days))
	}
	if c.Population < 1 {
		errs = append(errs, fmt.Errorf("population must be positive, got %d", c.Population))
	}
	if c.InitialInfected < 0 || c.InitialInfected > c.Population {
		errs = append(errs, fmt.Errorf("initial_infected %d outside [0, %d]", c.InitialInfected, c.Population))
	}
	if c.StepLength <= 0 {
		errs = append(errs, fmt.Errorf("step_length must be positive, got %g", c.StepLength))
	}
	if c.PoolSize < 2 {
		errs = append(errs, fmt.Errorf("pool_size must be at least 2, got %d", c.PoolSize))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must not be negative, got %g", c.Speed))
	}
	if !validFraction(c.Transport.Default) {
		errs = append(errs, fmt.Errorf("transport default %g outside [0, 1]", c.Transport.Default))
	}
	for i, w := range c.Transport.Windows {
		if w.From < 0 || w.To > 24 || w.From >= w.To {
			errs = append(errs, fmt.Errorf("transport window %d: hours [%d, %d) invalid", i, w.From, w.To))
		}
		if !validFraction(w.Fraction) {
			errs = append(errs, fmt.Errorf("transport window %d: fraction %g outside [0, 1]", i, w.Fraction))
		}
	}
	if c.Virus.Distance < 0 || !validFraction(c.Virus.Risk) {
		errs = append(errs, fmt.Errorf("virus distance %g / risk %g invalid", c.Virus.Distance, c.Virus.Risk))
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("api_port %d out of range", c.APIPort))
	}
	if c.NoiseAmplitude < 0 || c.NoiseAmplitude > 1 {
		errs = append(errs, fmt.Errorf("noise_amplitude %g outside [0, 1]", c.NoiseAmplitude))
	}
	return errors.Join(errs...)
}

func validFraction(f float64) bool {
	return f >= 0 && f <= 1
}

// Activity returns the transport schedule as the crowd's activity function.
// The first window containing the hour wins.
func (c Config) Activity() engine.ActivityFunc {
	def := c.Transport.Default
	windows := append([]ActivityEntry(nil), c.Transport.Windows...)
	return func(clock engine.Clock) float64 {
		h := clock.Hour()
		for _, w := range windows {
			if h >= w.From && h < w.To {
				return w.Fraction
			}
		}
		return def
	}
}

// Exposure returns the configured exposure model.
func (c Config) Exposure() engine.ProximityExposure {
	return engine.ProximityExposure{Distance: c.Virus.Distance, Risk: c.Virus.Risk}
}
