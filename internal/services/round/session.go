// Package round runs the per-user round lifecycle: Idle -> Active ->
// Settled -> Idle.
//
// A round's stake and the round record commit in the same ledger
// transaction, so a round is never visible without its balance effect and
// a user can never hold two active rounds.
package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fastprodman/crashgame/internal/repos/rounds"
	"github.com/fastprodman/crashgame/internal/services/ledger"
	"github.com/fastprodman/crashgame/internal/services/outcome"
	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/google/uuid"
)

const DefaultGrowthPerSecond = 0.2

var (
	ErrRoundAlreadyActive = rounds.ErrActiveRoundExists
	ErrNoActiveRound      = rounds.ErrNoActiveRound
)

type Result string

const (
	ResultWin   Result = "win"
	ResultCrash Result = "crash"
)

// CrashSampler fixes a round's crash point at start.
type CrashSampler interface {
	SampleCrashPoint() float64
}

// Handle describes a started round. It never carries the crash point.
type Handle struct {
	RoundID         uuid.UUID
	UserID          uuid.UUID
	BetMinor        int64
	FreeRound       bool
	StartedAt       time.Time
	GrowthPerSecond float64
	BalanceMinor    int64
	FreeRounds      int
}

// Settlement is the terminal outcome of a round. CrashPoint is revealed
// only here.
type Settlement struct {
	RoundID      uuid.UUID
	Result       Result
	Multiplier   float64
	CrashPoint   float64
	PayoutMinor  int64
	BalanceMinor int64
}

type Session struct {
	ledger      *ledger.Ledger
	rounds      rounds.Rounds
	sampler     CrashSampler
	growth      float64
	trustClient bool
	now         func() time.Time
}

type Option func(*Session)

// WithGrowth sets how fast the multiplier rises, in multiplier units per
// second. Non-positive values are ignored.
func WithGrowth(perSecond float64) Option {
	return func(s *Session) {
		if perSecond > 0 && !math.IsInf(perSecond, 0) {
			s.growth = perSecond
		}
	}
}

// WithTrustClientMultiplier makes CashOut settle at the multiplier the
// caller reports instead of the one derived from elapsed time.
func WithTrustClientMultiplier(trust bool) Option {
	return func(s *Session) { s.trustClient = trust }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(l *ledger.Ledger, rr rounds.Rounds, sampler CrashSampler, opts ...Option) *Session {
	s := &Session{
		ledger:  l,
		rounds:  rr,
		sampler: sampler,
		growth:  DefaultGrowthPerSecond,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start stakes betMinor (or one free round, if the user has any) and opens
// a round with a freshly sampled crash point.
func (s *Session) Start(ctx context.Context, userID uuid.UUID, betMinor int64) (Handle, error) {
	if betMinor <= 0 {
		return Handle{}, fmt.Errorf("%w: bet must be > 0", ledger.ErrInvalidDelta)
	}

	var h Handle

	err := s.ledger.Atomically(ctx, userID, func(tx *ledger.Tx) error {
		_, err := s.rounds.Get(tx.Tx, userID)
		switch {
		case err == nil:
			return ErrRoundAlreadyActive
		case !errors.Is(err, rounds.ErrNoActiveRound):
			return fmt.Errorf("check active round: %w", err)
		}

		free, err := tx.ConsumeFreeRound()
		if err != nil {
			return err
		}

		if !free {
			_, err = tx.ApplyDelta(-betMinor)
			if err != nil {
				return fmt.Errorf("stake: %w", err)
			}
		}

		crash := s.sampler.SampleCrashPoint()
		started := s.now().UTC()

		r := rounds.ActiveRound{
			ID:         uuid.New(),
			UserID:     userID,
			BetMinor:   betMinor,
			CrashPoint: crash,
			FreeRound:  free,
			StartedAt:  started,
			CrashAt:    started.Add(s.timeToReach(crash)),
		}

		err = s.rounds.Insert(tx.Tx, r)
		if err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		acc := tx.Account()
		h = Handle{
			RoundID:         r.ID,
			UserID:          userID,
			BetMinor:        betMinor,
			FreeRound:       free,
			StartedAt:       started,
			GrowthPerSecond: s.growth,
			BalanceMinor:    acc.BalanceMinor,
			FreeRounds:      acc.FreeRounds,
		}

		return nil
	})
	if err != nil {
		return Handle{}, fmt.Errorf("start round: %w", err)
	}

	slog.Info("round started",
		"user_id", userID,
		"round_id", h.RoundID,
		"bet", money.Format(betMinor),
		"free_round", h.FreeRound,
	)

	return h, nil
}

// CashOut settles the active round. The round is lost when the settlement
// multiplier has reached the stored crash point; otherwise
// bet * multiplier is credited.
func (s *Session) CashOut(ctx context.Context, userID uuid.UUID, claimed float64) (Settlement, error) {
	if s.trustClient && (math.IsNaN(claimed) || math.IsInf(claimed, 0) || claimed < 0) {
		return Settlement{}, fmt.Errorf("%w: %w", ledger.ErrInvalidDelta, outcome.ErrInvalidMultiplier)
	}

	var st Settlement

	err := s.ledger.Atomically(ctx, userID, func(tx *ledger.Tx) error {
		r, err := s.rounds.Get(tx.Tx, userID)
		if err != nil {
			return fmt.Errorf("get active round: %w", err)
		}

		m := claimed
		if !s.trustClient {
			m = s.multiplierAt(r.StartedAt, s.now())
		}

		err = s.rounds.Delete(tx.Tx, userID, r.ID)
		if err != nil {
			return fmt.Errorf("settle round: %w", err)
		}

		st = Settlement{
			RoundID:      r.ID,
			Result:       ResultCrash,
			Multiplier:   m,
			CrashPoint:   r.CrashPoint,
			BalanceMinor: tx.Account().BalanceMinor,
		}

		if m >= r.CrashPoint {
			return nil
		}

		payout, err := outcome.ComputePayout(r.BetMinor, m)
		if err != nil {
			return fmt.Errorf("compute payout: %w", err)
		}

		acc, err := tx.ApplyDelta(payout)
		if err != nil {
			return fmt.Errorf("credit win: %w", err)
		}

		st.Result = ResultWin
		st.PayoutMinor = payout
		st.BalanceMinor = acc.BalanceMinor

		return nil
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("cash out: %w", err)
	}

	slog.Info("round settled",
		"user_id", userID,
		"round_id", st.RoundID,
		"result", st.Result,
		"multiplier", st.Multiplier,
		"crash_point", st.CrashPoint,
		"payout", money.Format(st.PayoutMinor),
	)

	return st, nil
}

// ForceCrash settles the active round as a loss. A second call for the same
// round fails with ErrNoActiveRound and changes nothing.
func (s *Session) ForceCrash(ctx context.Context, userID uuid.UUID) (Settlement, error) {
	return s.crash(ctx, userID, uuid.Nil)
}

// crashRound settles roundID as a loss only if it is still the user's
// active round. Once it has been settled, a newer round of the same user
// is left untouched and ErrNoActiveRound is returned.
func (s *Session) crashRound(ctx context.Context, userID, roundID uuid.UUID) (Settlement, error) {
	return s.crash(ctx, userID, roundID)
}

// crash settles the user's active round as a loss. A non-nil roundID
// restricts it to that round.
func (s *Session) crash(ctx context.Context, userID, roundID uuid.UUID) (Settlement, error) {
	var st Settlement

	err := s.ledger.Atomically(ctx, userID, func(tx *ledger.Tx) error {
		r, err := s.rounds.Get(tx.Tx, userID)
		if err != nil {
			return fmt.Errorf("get active round: %w", err)
		}

		if roundID != uuid.Nil && r.ID != roundID {
			return fmt.Errorf("round %s already settled: %w", roundID, ErrNoActiveRound)
		}

		err = s.rounds.Delete(tx.Tx, userID, r.ID)
		if err != nil {
			return fmt.Errorf("settle round: %w", err)
		}

		st = Settlement{
			RoundID:      r.ID,
			Result:       ResultCrash,
			Multiplier:   r.CrashPoint,
			CrashPoint:   r.CrashPoint,
			BalanceMinor: tx.Account().BalanceMinor,
		}

		return nil
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("force crash: %w", err)
	}

	slog.Info("round crashed", "user_id", userID, "round_id", st.RoundID, "crash_point", st.CrashPoint)

	return st, nil
}

// multiplierAt is 1 + growth * elapsed seconds, truncated to cents so the
// server never pays more than the multiplier a client could display.
func (s *Session) multiplierAt(started, now time.Time) float64 {
	elapsed := max(now.Sub(started).Seconds(), 0)
	m := 1 + s.growth*elapsed

	return math.Floor(m*100+1e-9) / 100
}

func (s *Session) timeToReach(crash float64) time.Duration {
	secs := (crash - 1) / s.growth

	return time.Duration(secs * float64(time.Second))
}
