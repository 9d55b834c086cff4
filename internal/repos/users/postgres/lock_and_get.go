package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/google/uuid"
)

// LockAndGet takes the row lock before reading, so a second transaction
// for the same user blocks here until the first one ends.
func (r *usersRepo) LockAndGet(tx *sql.Tx, userID uuid.UUID) (users.Account, error) {
	row := tx.QueryRow(`
		SELECT `+accountColumns+`
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, users.ErrUserNotFound
		}

		return users.Account{}, fmt.Errorf("lock/get user: %w", err)
	}

	return acc, nil
}
