package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
)

// Account is the stored projection of a user's wallet. Balance is in minor
// units.
type Account struct {
	ID           uuid.UUID
	BalanceMinor int64
	FreeRounds   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Users interface {
	Create(ctx context.Context, acc Account) (Account, error)
	Get(ctx context.Context, userID uuid.UUID) (Account, error)
	LockAndGet(tx *sql.Tx, userID uuid.UUID) (Account, error)
	SetBalance(tx *sql.Tx, userID uuid.UUID, balanceMinor int64, at time.Time) (Account, error)
	SetFreeRounds(tx *sql.Tx, userID uuid.UUID, freeRounds int, at time.Time) (Account, error)
}
