// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
)

// Store drivers understood by the server and the CLI.
const (
	StoreMemory   = repository.KindMemory
	StoreSQLite   = repository.KindSQLite
	StorePostgres = repository.KindPostgres
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects persistence: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the sqlite file or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// MaxLeaderboardLimit caps GET /players?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxGamesPerMatch is N in best-of-N.
	MaxGamesPerMatch int `koanf:"max_games_per_match"`

	// DedupeSize sets how many event ids are remembered in memory.
	DedupeSize int `koanf:"dedupe_size"`

	// QueueCapacity bounds asynchronous submissions. Zero disables them.
	QueueCapacity int `koanf:"queue_capacity"`

	// DefaultLeague receives batches that name no league. Empty means none.
	DefaultLeague string `koanf:"default_league"`

	// SkipDrawn leaves ratings untouched for drawn matches.
	SkipDrawn bool `koanf:"skip_drawn"`

	// Glicko-2 parameters.
	RatingDefault    float64 `koanf:"rating_default"`
	RatingDeviation  float64 `koanf:"rating_deviation"`
	RatingVolatility float64 `koanf:"rating_volatility"`
	RatingTau        float64 `koanf:"rating_tau"`
	RatingEpsilon    float64 `koanf:"rating_epsilon"`

	// RatingMaxIterations bounds the volatility solve.
	RatingMaxIterations int `koanf:"rating_max_iterations"`

	// Match scores fed to the engine.
	ScoreWin  float64 `koanf:"score_win"`
	ScoreDraw float64 `koanf:"score_draw"`
	ScoreLoss float64 `koanf:"score_loss"`
}

// New creates a Config with defaults.
func New() *Config {
	p := rating.DefaultParams()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         StoreMemory,
		MaxLeaderboardLimit: 100,
		MaxGamesPerMatch:    outcome.DefaultMaxGames,
		DedupeSize:          10_000,
		QueueCapacity:       1024,
		RatingDefault:       p.DefaultRating,
		RatingDeviation:     p.DefaultDeviation,
		RatingVolatility:    p.DefaultVolatility,
		RatingTau:           p.Tau,
		RatingEpsilon:       p.Epsilon,
		RatingMaxIterations: p.MaxIterations,
		ScoreWin:            p.Win,
		ScoreDraw:           p.Draw,
		ScoreLoss:           p.Loss,
	}
}

// RatingOptions converts the rating block into engine options.
func (c *Config) RatingOptions() []rating.Option {
	return []rating.Option{
		rating.WithDefaults(c.RatingDefault, c.RatingDeviation, c.RatingVolatility),
		rating.WithTau(c.RatingTau),
		rating.WithEpsilon(c.RatingEpsilon),
		rating.WithMaxIterations(c.RatingMaxIterations),
		rating.WithScores(c.ScoreWin, c.ScoreDraw, c.ScoreLoss),
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxLeaderboardLimit <= 0 {
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if c.MaxGamesPerMatch <= 0 {
		return fmt.Errorf("%w: max_games_per_match must be positive", ErrInvalidConfig)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue_capacity must not be negative", ErrInvalidConfig)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	p := rating.DefaultParams()
	for _, opt := range c.RatingOptions() {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
