package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/ladder/internal/adapters/repository"
	app "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/config"
	"github.com/okian/ladder/internal/importer"
	"github.com/okian/ladder/pkg/logger"
)

const defaultLeague = "Pauper League 2025"

// options are the command line flags.
type options struct {
	dir       string
	league    string
	export    string
	top       int
	skipDrawn bool
	store     string
	dsn       string
	verbose   bool
}

func main() {
	var o options
	flag.StringVar(&o.dir, "dir", "imports", "Directory of YYYY-MM-DD.csv event files")
	flag.StringVar(&o.league, "league", defaultLeague, "League the events belong to")
	flag.StringVar(&o.export, "export", "", "Write the ranking CSV here after rating (\"-\" for stdout)")
	flag.IntVar(&o.top, "top", 0, "Limit the exported ranking to the top N players (0 = all)")
	flag.BoolVar(&o.skipDrawn, "skip-drawn", false, "Leave ratings untouched for drawn matches")
	flag.StringVar(&o.store, "store", repository.KindMemory, "Store kind: memory, sqlite or postgres")
	flag.StringVar(&o.dsn, "dsn", "", "sqlite file or postgres connection string")
	flag.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if o.verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger.Named("rate-events")); err != nil {
		os.Stderr.WriteString("rate-events: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, log logger.Logger) error {
	files, err := importer.ReadDir(o.dir)
	if err != nil {
		return err
	}

	// Engine parameters follow the server configuration.
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	store, err := repository.Open(ctx, o.store, o.dsn)
	if err != nil {
		return err
	}
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithRatingOptions(cfg.RatingOptions()...),
		app.WithMaxGames(cfg.MaxGamesPerMatch),
		app.WithSkipDrawn(o.skipDrawn || cfg.SkipDrawn),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return err
	}
	defer svc.Stop()

	rated, skipped := 0, 0
	for _, f := range files {
		batch, err := importer.LoadBatch(f, o.league)
		if err != nil {
			return err
		}
		report, err := svc.RateEvent(ctx, batch)
		switch {
		case errors.Is(err, app.ErrDuplicateEvent):
			skipped++
			log.Info(ctx, "event already rated", logger.String("file", f.Name()))
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
		rated++
		log.Info(ctx, "event rated",
			logger.String("file", f.Name()),
			logger.Int("matches", report.Matches),
			logger.Int("decayed", report.Decayed),
		)
	}
	log.Info(ctx, "done", logger.Int("rated", rated), logger.Int("skipped", skipped))

	if o.export == "" {
		return nil
	}
	return export(ctx, svc, o)
}

func export(ctx context.Context, svc *app.Service, o options) error {
	n := o.top
	if n <= 0 {
		n = svc.GetStats()["players"].(int)
	}
	if n == 0 {
		return nil
	}
	entries, err := svc.Leaderboard(ctx, n)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if o.export != "-" {
		f, err := os.Create(o.export)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return importer.WriteRanking(w, entries)
}
