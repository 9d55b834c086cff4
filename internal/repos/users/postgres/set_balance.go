package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/google/uuid"
)

// SetBalance writes an absolute balance. The users_balance_check constraint
// backs up the caller's own non-negative check.
func (r *usersRepo) SetBalance(tx *sql.Tx, userID uuid.UUID, balanceMinor int64, at time.Time) (users.Account, error) {
	row := tx.QueryRow(`
		UPDATE users
		SET balance = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+accountColumns,
		userID, balanceMinor, at,
	)

	acc, err := scanAccount(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return users.Account{}, users.ErrUserNotFound
		case pgutils.IsCheckViolation(err, "users_balance_check"):
			return users.Account{}, users.ErrInsufficientFunds
		}

		return users.Account{}, fmt.Errorf("set balance: %w", err)
	}

	return acc, nil
}
