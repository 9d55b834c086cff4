// Package ledger is the only writer of account balances and free-round
// counters.
//
// Every mutation runs inside Atomically: the caller first takes the
// in-process lock for the user (bounded by the lock wait), then opens a
// transaction whose first statement locks the user row FOR UPDATE. Two
// mutations of one account therefore never interleave, across goroutines
// or processes, while different accounts proceed in parallel.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/fastprodman/crashgame/internal/infra/keylock"
	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/users"
	pgusers "github.com/fastprodman/crashgame/internal/repos/users/postgres"
	"github.com/google/uuid"
)

const DefaultLockWait = 2 * time.Second

// MaxFreeRounds is the largest free-round count an account can hold.
const MaxFreeRounds = math.MaxInt32

type Account = users.Account

type Ledger struct {
	db       *sql.DB
	users    users.Users
	locks    *keylock.Locks[uuid.UUID]
	lockWait time.Duration
	now      func() time.Time
}

type Option func(*Ledger)

// WithLockWait bounds how long an operation waits for the account, both
// for the in-process lock and for the row lock.
func WithLockWait(d time.Duration) Option {
	return func(l *Ledger) { l.lockWait = d }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:       db,
		users:    pgusers.New(db),
		locks:    keylock.New[uuid.UUID](),
		lockWait: DefaultLockWait,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Atomically runs fn in one transaction holding the user's lock. The
// account row is locked and loaded before fn runs. If fn returns an error
// the transaction is rolled back and the account is left unchanged.
func (l *Ledger) Atomically(ctx context.Context, userID uuid.UUID, fn func(tx *Tx) error) error {
	unlock, err := l.locks.Lock(ctx, userID, l.lockWait)
	if err != nil {
		return classify(fmt.Errorf("acquire user lock: %w", err))
	}
	defer unlock()

	opts := pgutils.TxOptions{LockTimeout: l.lockWait}

	err = pgutils.WithTx(ctx, l.db, opts, func(sqlTx *sql.Tx) error {
		acc, err := l.users.LockAndGet(sqlTx, userID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		return fn(&Tx{
			Tx:    sqlTx,
			users: l.users,
			acc:   acc,
			now:   l.now().UTC(),
		})
	})

	return classify(err)
}

// Tx is a transaction scoped to one locked account.
type Tx struct {
	*sql.Tx

	users users.Users
	acc   Account
	now   time.Time
}

// Account returns the account as of the last write in this transaction.
func (t *Tx) Account() Account {
	return t.acc
}

// Now is the timestamp every write in this transaction records.
func (t *Tx) Now() time.Time {
	return t.now
}

// ApplyDelta adds deltaMinor to the balance, rejecting any result below
// zero with ErrInsufficientFunds.
func (t *Tx) ApplyDelta(deltaMinor int64) (Account, error) {
	updated := t.acc.BalanceMinor + deltaMinor
	if (deltaMinor > 0 && updated < t.acc.BalanceMinor) || (deltaMinor < 0 && updated > t.acc.BalanceMinor) {
		return Account{}, fmt.Errorf("%w: balance overflow", ErrInvalidDelta)
	}

	if updated < 0 {
		return Account{}, ErrInsufficientFunds
	}

	acc, err := t.users.SetBalance(t.Tx, t.acc.ID, updated, t.now)
	if err != nil {
		return Account{}, fmt.Errorf("set balance: %w", err)
	}

	t.acc = acc

	return acc, nil
}

// ConsumeFreeRound spends one free round if any is left.
func (t *Tx) ConsumeFreeRound() (bool, error) {
	if t.acc.FreeRounds <= 0 {
		return false, nil
	}

	acc, err := t.users.SetFreeRounds(t.Tx, t.acc.ID, t.acc.FreeRounds-1, t.now)
	if err != nil {
		return false, fmt.Errorf("set free rounds: %w", err)
	}

	t.acc = acc

	return true, nil
}

func (t *Tx) GrantFreeRounds(count int) (Account, error) {
	if count <= 0 {
		return Account{}, fmt.Errorf("%w: free round count must be > 0", ErrInvalidDelta)
	}

	total := int64(t.acc.FreeRounds) + int64(count)
	if total > MaxFreeRounds {
		return Account{}, fmt.Errorf("%w: free round count exceeds %d", ErrInvalidDelta, MaxFreeRounds)
	}

	acc, err := t.users.SetFreeRounds(t.Tx, t.acc.ID, int(total), t.now)
	if err != nil {
		return Account{}, fmt.Errorf("set free rounds: %w", err)
	}

	t.acc = acc

	return acc, nil
}
