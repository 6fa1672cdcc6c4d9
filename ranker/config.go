package main

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/rating"
)

// Config is read from the environment, after .env if one exists.
type Config struct {
	SeedPath    string `env:"RANKER_SEED_PATH" envDefault:"init.txt"`
	DataPath    string `env:"RANKER_DATA_PATH" envDefault:"data.json"`
	SessionLog  string `env:"RANKER_SESSION_LOG" envDefault:"sessions.jsonl"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	Tau     float64 `env:"RANKER_TAU" envDefault:"0.5"`
	Epsilon float64 `env:"RANKER_EPSILON" envDefault:"1e-6"`
	MaxIter int     `env:"RANKER_MAX_ITER" envDefault:"100"`
	RNGSeed uint64  `env:"RANKER_RNG_SEED" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	NoColor  string `env:"NO_COLOR"`
	UseColor string `env:"USE_COLOR"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, eris.Wrap(err, "failed to parse config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SeedPath) == "" {
		return eris.New("RANKER_SEED_PATH must not be empty")
	}
	if c.DatabaseURL == "" && strings.TrimSpace(c.DataPath) == "" {
		return eris.New("RANKER_DATA_PATH must not be empty without DATABASE_URL")
	}
	if c.Tau <= 0 {
		return eris.Errorf("RANKER_TAU must be positive, got %v", c.Tau)
	}
	if c.Epsilon <= 0 {
		return eris.Errorf("RANKER_EPSILON must be positive, got %v", c.Epsilon)
	}
	if c.MaxIter < 1 {
		return eris.Errorf("RANKER_MAX_ITER must be at least 1, got %d", c.MaxIter)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

func (c Config) Engine() rating.Engine {
	return rating.Engine{Tau: c.Tau, Epsilon: c.Epsilon, MaxIter: c.MaxIter}
}

// Color follows NO_COLOR and USE_COLOR=0, and stays off when stdout is not
// a terminal.
func (c Config) Color() bool {
	if c.NoColor != "" || strings.TrimSpace(c.UseColor) == "0" {
		return false
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
