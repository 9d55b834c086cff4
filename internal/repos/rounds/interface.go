package rounds

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrActiveRoundExists = errors.New("active round already exists")
	ErrNoActiveRound     = errors.New("no active round")
)

// ActiveRound is a round that has been staked and not yet settled.
// CrashPoint never leaves the server before settlement.
type ActiveRound struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	BetMinor   int64
	CrashPoint float64
	FreeRound  bool
	StartedAt  time.Time
	CrashAt    time.Time
}

// ExpiredRound identifies one round past its crash time.
type ExpiredRound struct {
	UserID  uuid.UUID
	RoundID uuid.UUID
}

type Rounds interface {
	Insert(tx *sql.Tx, round ActiveRound) error
	Get(tx *sql.Tx, userID uuid.UUID) (ActiveRound, error)
	Delete(tx *sql.Tx, userID, roundID uuid.UUID) error
	ListExpired(ctx context.Context, before time.Time, limit uint64) ([]ExpiredRound, error)
}
