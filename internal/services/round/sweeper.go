package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/crashgame/internal/repos/rounds"
	"github.com/fastprodman/crashgame/internal/services/ledger"
)

type SweeperConfig struct {
	Interval time.Duration
	// Grace is how long past its crash time a round is left for the
	// client to report before it is crashed here.
	Grace time.Duration
	Batch uint64
}

// Sweeper settles rounds nobody cashed out or crashed once their crash
// time has passed.
type Sweeper struct {
	session *Session
	cfg     SweeperConfig
}

func NewSweeper(s *Session, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	if cfg.Batch == 0 {
		cfg.Batch = 100
	}

	return &Sweeper{session: s, cfg: cfg}
}

// Sweep crashes one batch of expired rounds and returns how many it
// settled. Rounds settled concurrently, or whose user is busy, are skipped.
func (w *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := w.list(ctx)
	if err != nil {
		return 0, err
	}

	return w.settle(ctx, expired)
}

func (w *Sweeper) list(ctx context.Context) ([]rounds.ExpiredRound, error) {
	before := w.session.now().UTC().Add(-w.cfg.Grace)

	expired, err := w.session.rounds.ListExpired(ctx, before, w.cfg.Batch)
	if err != nil {
		return nil, fmt.Errorf("list expired rounds: %w", err)
	}

	return expired, nil
}

// settle crashes each listed round. A user may have settled the listed
// round and started another one since it was listed; the new round is
// not touched.
func (w *Sweeper) settle(ctx context.Context, expired []rounds.ExpiredRound) (int, error) {
	settled := 0

	for _, e := range expired {
		_, err := w.session.crashRound(ctx, e.UserID, e.RoundID)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, ErrNoActiveRound), errors.Is(err, ledger.ErrBusy):
			slog.Debug("sweep skipped round", "user_id", e.UserID, "round_id", e.RoundID, "error", err)
		default:
			return settled, fmt.Errorf("crash expired round: %w", err)
		}
	}

	return settled, nil
}

// Run sweeps every interval until ctx ends.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	slog.Info("round sweeper started", "interval", w.cfg.Interval, "grace", w.cfg.Grace)

	for {
		select {
		case <-ctx.Done():
			slog.Info("round sweeper stopped")
			return
		case <-ticker.C:
			n, err := w.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Error("round sweep failed", "error", err)
			}

			if n > 0 {
				slog.Info("expired rounds crashed", "count", n)
			}
		}
	}
}
