package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/ladder/internal/adapters/http/api"
	"github.com/okian/ladder/internal/adapters/http/feed"
	"github.com/okian/ladder/internal/adapters/http/swagger"
	"github.com/okian/ladder/internal/adapters/mq/queue"
	"github.com/okian/ladder/internal/adapters/mq/worker"
	"github.com/okian/ladder/internal/adapters/repository"
	app "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/config"
	"github.com/okian/ladder/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Named("ladder")

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return err
	}

	hub := feed.NewHub(log.Named("feed"))
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithObserver(hub),
		app.WithStore(store),
		app.WithRatingOptions(cfg.RatingOptions()...),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxGames(cfg.MaxGamesPerMatch),
		app.WithSkipDrawn(cfg.SkipDrawn),
		app.WithDefaultLeague(cfg.DefaultLeague),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return err
	}
	defer svc.Stop()

	apiOpts := []api.Option{
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithStat("feedSubscribers", func() any { return hub.Subscribers() }),
	}
	var (
		q  *queue.InMemoryQueue
		wk *worker.Worker
	)
	if cfg.QueueCapacity > 0 {
		q = queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueCapacity))
		wk = worker.New(q, svc, worker.WithLogger(log.Named("worker")))
		go wk.Run(context.WithoutCancel(ctx))
		apiOpts = append(apiOpts,
			api.WithSubmitter(q),
			api.WithStat("queueLength", func() any { return q.Len() }),
		)
	}

	router := api.NewServer(svc, apiOpts...).Routes()
	swagger.Register(router)
	router.Handle("/ws/events", hub)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if q != nil {
		// Rate what was already accepted before the store closes.
		_ = q.Close()
		if err := wk.Drain(shutdownCtx); err != nil {
			log.Warn(ctx, "queued events left unrated", logger.Int("pending", q.Len()), logger.Error(err))
		}
	}
	log.Info(ctx, "server stopped")
	return nil
}
