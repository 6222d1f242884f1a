package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Log     LogConfig
	Solver  SolverConfig
	Runner  RunnerConfig
	Results ResultsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig supplies annealing defaults applied when a solve request
// leaves an option unset.
type SolverConfig struct {
	InitialTemperature float64
	CoolingStrategy    string
	CoolingRate        float64
	MaxIterations      int
	PlateauWindow      int
	NeighborRetries    int
	ProgressInterval   int
}

// RunnerConfig bounds the async solve runner.
type RunnerConfig struct {
	Workers    int
	BufferSize int
}

// ResultsConfig governs the in-memory result store.
type ResultsConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		InitialTemperature: v.GetFloat64("SOLVER_INITIAL_TEMPERATURE"),
		CoolingStrategy:    v.GetString("SOLVER_COOLING_STRATEGY"),
		CoolingRate:        v.GetFloat64("SOLVER_COOLING_RATE"),
		MaxIterations:      v.GetInt("SOLVER_MAX_ITERATIONS"),
		PlateauWindow:      v.GetInt("SOLVER_PLATEAU_WINDOW"),
		NeighborRetries:    v.GetInt("SOLVER_NEIGHBOR_RETRIES"),
		ProgressInterval:   v.GetInt("SOLVER_PROGRESS_INTERVAL"),
	}

	cfg.Runner = RunnerConfig{
		Workers:    v.GetInt("RUNNER_WORKERS"),
		BufferSize: v.GetInt("RUNNER_BUFFER_SIZE"),
	}

	cfg.Results = ResultsConfig{
		TTL: parseDuration(v.GetString("RESULTS_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_INITIAL_TEMPERATURE", 1.0)
	v.SetDefault("SOLVER_COOLING_STRATEGY", "exponential")
	v.SetDefault("SOLVER_COOLING_RATE", 0.995)
	v.SetDefault("SOLVER_MAX_ITERATIONS", 10000)
	v.SetDefault("SOLVER_PLATEAU_WINDOW", 1500)
	v.SetDefault("SOLVER_NEIGHBOR_RETRIES", 8)
	v.SetDefault("SOLVER_PROGRESS_INTERVAL", 100)

	v.SetDefault("RUNNER_WORKERS", 2)
	v.SetDefault("RUNNER_BUFFER_SIZE", 8)

	v.SetDefault("RESULTS_TTL", "30m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
