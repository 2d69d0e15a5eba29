// Package service rates matches and event batches and serves the resulting
// standings to the HTTP API and the command line tools.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/adapters/standings"
	"github.com/okian/ladder/internal/domain/dedupe"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/logger"
)

// Observer is told about every committed write. Calls happen after the
// transaction commits and must not block.
type Observer interface {
	EventRated(ctx context.Context, report EventReport)
	MatchRated(ctx context.Context, match model.Match)
}

// Service owns the rating engine and serializes every write to the store.
type Service struct {
	mu sync.RWMutex
	// writeMu keeps rating sequential; later matches must see earlier ones.
	writeMu sync.Mutex

	// Core components
	store   repository.Store
	engine  *rating.Engine
	tracker dedupe.Tracker
	index   *standings.Index

	// Configuration
	ratingOpts    []rating.Option
	dedupeSize    int
	maxGames      int
	skipDrawn     bool
	defaultLeague string

	now   func() time.Time
	newID func() string

	observers []Observer

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. The default is an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRatingOptions configures the Glicko-2 engine.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.ratingOpts = append(s.ratingOpts, opts...)
	}
}

// WithDedupeSize sets how many event ids are remembered in memory.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxGames sets the best-of-N format.
func WithMaxGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGames = n
		}
	}
}

// WithSkipDrawn makes drawn matches leave ratings untouched in every batch.
func WithSkipDrawn(skip bool) Option {
	return func(s *Service) {
		s.skipDrawn = skip
	}
}

// WithDefaultLeague names the league used by batches that name none.
func WithDefaultLeague(name string) Option {
	return func(s *Service) {
		s.defaultLeague = name
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers an observer for committed events and matches.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Call Start before using it.
func New(opts ...Option) *Service {
	s := &Service{
		dedupeSize: dedupe.DefaultCapacity,
		maxGames:   outcome.DefaultMaxGames,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and loads the standings index from the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	engine, err := rating.New(s.ratingOpts...)
	if err != nil {
		return fmt.Errorf("rating engine: %w", err)
	}
	s.engine = engine
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.tracker = dedupe.NewTracker(dedupe.WithCapacity(s.dedupeSize))
	s.index = standings.NewIndex()
	if err := s.reloadStandings(ctx); err != nil {
		return err
	}

	s.started = true
	p := engine.Params()
	s.logger.Info(ctx, "rating service started",
		logger.Float64("tau", p.Tau),
		logger.Int("maxGames", s.maxGames),
		logger.Bool("skipDrawn", s.skipDrawn),
		logger.String("defaultLeague", s.defaultLeague),
		logger.Int("players", s.index.Count(ctx)),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Engine returns the configured rating engine.
func (s *Service) Engine() *rating.Engine { return s.engine }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"maxGames":      s.maxGames,
		"skipDrawn":     s.skipDrawn,
		"dedupeSize":    s.dedupeSize,
		"defaultLeague": s.defaultLeague,
	}
	if s.started {
		ctx := context.Background()
		stats["players"] = s.index.Count(ctx)
		stats["eventsTracked"] = s.tracker.Len()
		stats["tau"] = s.engine.Params().Tau
	}
	return stats
}

// reloadStandings rebuilds the historic index from the store.
func (s *Service) reloadStandings(ctx context.Context) error {
	var players []types.Entry
	err := s.store.View(ctx, func(tx repository.Tx) error {
		ps, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}
		players = make([]types.Entry, 0, len(ps))
		for _, p := range ps {
			players = append(players, entryOf(p.ID, p.Name, p.Standing))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load standings: %w", err)
	}
	s.index.Replace(ctx, players)
	return nil
}

// unresolved tags a missing row so callers can match either kind.
func unresolved(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrUnresolved, err)
	}
	return err
}
