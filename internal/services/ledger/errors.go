package ledger

import (
	"errors"
	"fmt"

	"github.com/fastprodman/crashgame/internal/infra/keylock"
	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/users"
)

var (
	ErrAccountNotFound   = users.ErrUserNotFound
	ErrInsufficientFunds = users.ErrInsufficientFunds
	ErrInvalidDelta      = errors.New("invalid delta")
	// ErrBusy means another operation held the account for longer than the
	// configured wait.
	ErrBusy = errors.New("account busy")
	// ErrStoreUnavailable is the only retryable kind.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// classify maps infrastructure failures onto ErrBusy and
// ErrStoreUnavailable, keeping the original error in the chain.
func classify(err error) error {
	switch {
	case err == nil, errors.Is(err, ErrBusy), errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, keylock.ErrTimeout), errors.Is(err, pgutils.ErrLockTimeout):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	case errors.Is(err, pgutils.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}
