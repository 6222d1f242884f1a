package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1.0, cfg.Solver.InitialTemperature)
	assert.Equal(t, "exponential", cfg.Solver.CoolingStrategy)
	assert.Equal(t, 0.995, cfg.Solver.CoolingRate)
	assert.Equal(t, 10000, cfg.Solver.MaxIterations)
	assert.Equal(t, 8, cfg.Solver.NeighborRetries)
	assert.Equal(t, 2, cfg.Runner.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Results.TTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("SOLVER_MAX_ITERATIONS", "2500")
	t.Setenv("SOLVER_COOLING_STRATEGY", "adaptive")
	t.Setenv("RUNNER_WORKERS", "4")
	t.Setenv("RESULTS_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 2500, cfg.Solver.MaxIterations)
	assert.Equal(t, "adaptive", cfg.Solver.CoolingStrategy)
	assert.Equal(t, 4, cfg.Runner.Workers)
	assert.Equal(t, 90*time.Second, cfg.Results.TTL)
}

func TestLoadFallsBackOnBadDuration(t *testing.T) {
	t.Setenv("RESULTS_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Results.TTL)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("1m", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("garbage", time.Hour))
}
