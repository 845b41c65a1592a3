package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vcity/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.1, cfg.Transport.Default)
	assert.Equal(t, engine.DefaultExposure, cfg.Exposure())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcity.yaml")
	data := `
seed: 42
population: 100
pool_refresh: 5ms
transport:
  default: 0.05
  windows:
    - {from: 8, to: 10, fraction: 0.3}
virus:
  risk: 0.2
db_path: run.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100, cfg.Population)
	assert.Equal(t, 5*time.Millisecond, cfg.PoolRefresh)
	assert.Equal(t, "run.db", cfg.DBPath)
	assert.Equal(t, 0.2, cfg.Virus.Risk)
	assert.Equal(t, engine.DefaultExposure.Distance, cfg.Virus.Distance, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.DayStartHour)

	activity := cfg.Activity()
	assert.Equal(t, 0.3, activity(engine.NewClock(9, 20)))
	assert.Equal(t, 0.05, activity(engine.NewClock(10, 20)))
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("day_start_hour: 20\nday_end_hour: 8\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "day window")
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: [1, 2"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no population", func(c *Config) { c.Population = 0 }, "population"},
		{"too many infected", func(c *Config) { c.InitialInfected = c.Population + 1 }, "initial_infected"},
		{"zero step", func(c *Config) { c.StepLength = 0 }, "step_length"},
		{"tiny pool", func(c *Config) { c.PoolSize = 1 }, "pool_size"},
		{"bad fraction", func(c *Config) { c.Transport.Default = 1.5 }, "transport default"},
		{"bad window", func(c *Config) {
			c.Transport.Windows = []ActivityEntry{{From: 5, To: 5, Fraction: 0.1}}
		}, "transport window 0"},
		{"bad risk", func(c *Config) { c.Virus.Risk = 2 }, "virus"},
		{"bad port", func(c *Config) { c.APIPort = 70000 }, "api_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
