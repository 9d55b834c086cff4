package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/google/uuid"
)

// Opening is the initial state of a new account.
type Opening struct {
	BalanceMinor int64
	FreeRounds   int
}

func (l *Ledger) CreateAccount(ctx context.Context, opening Opening) (Account, error) {
	if opening.BalanceMinor < 0 || opening.FreeRounds < 0 || int64(opening.FreeRounds) > MaxFreeRounds {
		return Account{}, fmt.Errorf("%w: opening state must not be negative", ErrInvalidDelta)
	}

	now := l.now().UTC()

	acc, err := l.users.Create(ctx, users.Account{
		ID:           uuid.New(),
		BalanceMinor: opening.BalanceMinor,
		FreeRounds:   opening.FreeRounds,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", classify(err))
	}

	slog.Info("account created", "user_id", acc.ID, "balance", money.Format(acc.BalanceMinor), "free_rounds", acc.FreeRounds)

	return acc, nil
}

// GetAccount reads the account without taking its lock.
func (l *Ledger) GetAccount(ctx context.Context, userID uuid.UUID) (Account, error) {
	acc, err := l.users.Get(ctx, userID)
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", classify(err))
	}

	return acc, nil
}

// ApplyDelta credits (delta > 0) or debits (delta < 0) the balance by delta
// major units, rounded to cents. Non-finite deltas fail with ErrInvalidDelta
// before any transaction is opened.
func (l *Ledger) ApplyDelta(ctx context.Context, userID uuid.UUID, delta float64) (Account, error) {
	deltaMinor, err := money.FromFloat(delta)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidDelta, err)
	}

	return l.ApplyDeltaMinor(ctx, userID, deltaMinor)
}

func (l *Ledger) ApplyDeltaMinor(ctx context.Context, userID uuid.UUID, deltaMinor int64) (Account, error) {
	var acc Account

	err := l.Atomically(ctx, userID, func(tx *Tx) error {
		var err error

		acc, err = tx.ApplyDelta(deltaMinor)

		return err
	})
	if err != nil {
		return Account{}, fmt.Errorf("apply delta: %w", err)
	}

	slog.Debug("balance changed", "user_id", userID, "delta", money.Format(deltaMinor), "balance", money.Format(acc.BalanceMinor))

	return acc, nil
}

// Deposit credits a strictly positive amount.
func (l *Ledger) Deposit(ctx context.Context, userID uuid.UUID, amountMinor int64) (Account, error) {
	if amountMinor <= 0 {
		return Account{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidDelta)
	}

	return l.ApplyDeltaMinor(ctx, userID, amountMinor)
}

// Withdraw debits a strictly positive amount.
func (l *Ledger) Withdraw(ctx context.Context, userID uuid.UUID, amountMinor int64) (Account, error) {
	if amountMinor <= 0 {
		return Account{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidDelta)
	}

	return l.ApplyDeltaMinor(ctx, userID, -amountMinor)
}

// ConsumeFreeRound decrements the free-round counter if it is positive and
// reports whether it did.
func (l *Ledger) ConsumeFreeRound(ctx context.Context, userID uuid.UUID) (bool, error) {
	var used bool

	err := l.Atomically(ctx, userID, func(tx *Tx) error {
		var err error

		used, err = tx.ConsumeFreeRound()

		return err
	})
	if err != nil {
		return false, fmt.Errorf("consume free round: %w", err)
	}

	return used, nil
}

func (l *Ledger) GrantFreeRounds(ctx context.Context, userID uuid.UUID, count int) (Account, error) {
	if count <= 0 || int64(count) > MaxFreeRounds {
		return Account{}, fmt.Errorf("%w: free round count must be in (0, %d]", ErrInvalidDelta, MaxFreeRounds)
	}

	var acc Account

	err := l.Atomically(ctx, userID, func(tx *Tx) error {
		var err error

		acc, err = tx.GrantFreeRounds(count)

		return err
	})
	if err != nil {
		return Account{}, fmt.Errorf("grant free rounds: %w", err)
	}

	slog.Info("free rounds granted", "user_id", userID, "count", count, "free_rounds", acc.FreeRounds)

	return acc, nil
}
