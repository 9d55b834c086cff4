package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/crashgame/internal/api"
	"github.com/fastprodman/crashgame/internal/infra/logging"
	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	pgrounds "github.com/fastprodman/crashgame/internal/repos/rounds/postgres"
	"github.com/fastprodman/crashgame/internal/services/ledger"
	"github.com/fastprodman/crashgame/internal/services/outcome"
	"github.com/fastprodman/crashgame/internal/services/round"
	"github.com/fastprodman/crashgame/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "crashgame-api")

	guest, err := cfg.guestOpening()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	// --- Services ---
	dist := outcome.DefaultDistribution
	if cfg.Round.CrashTablePath != "" {
		dist, err = outcome.LoadDistribution(cfg.Round.CrashTablePath)
		if err != nil {
			return fmt.Errorf("load crash table: %w", err)
		}
	}

	gen, err := outcome.NewGenerator(nil, dist)
	if err != nil {
		return fmt.Errorf("init outcome generator: %w", err)
	}

	ldg := ledger.New(db, ledger.WithLockWait(cfg.Ledger.LockWait))
	session := round.New(ldg, pgrounds.New(db), gen,
		round.WithGrowth(cfg.Round.GrowthPerSecond),
		round.WithTrustClientMultiplier(cfg.Round.TrustClientMultiplier),
	)

	if cfg.Round.TrustClientMultiplier {
		slog.Warn("cash-outs settle at client-reported multipliers")
	}

	// --- Sweeper ---
	sweepCtx, stopSweep := context.WithCancel(context.WithoutCancel(ctx))
	sweepDone := make(chan struct{})

	sweeper := round.NewSweeper(session, round.SweeperConfig{
		Interval: cfg.Round.SweepInterval,
		Grace:    cfg.Round.SweepGrace,
		Batch:    cfg.Round.SweepBatch,
	})

	go func() {
		defer close(sweepDone)
		sweeper.Run(sweepCtx)
	}()

	shutdownqueue.Add("round sweeper", func(c context.Context) error {
		stopSweep()

		select {
		case <-sweepDone:
			return nil
		case <-c.Done():
			return fmt.Errorf("wait for sweeper: %w", c.Err())
		}
	})

	// --- HTTP server ---
	handler := api.NewHandler(ldg, session, guest)
	srv := api.NewServer(cfg.Port, api.NewRouter(handler, cfg.AllowedOrigins))

	shutdownqueue.Add("http server", func(c context.Context) error {
		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
