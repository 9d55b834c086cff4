package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/google/uuid"
)

func (r *usersRepo) SetFreeRounds(tx *sql.Tx, userID uuid.UUID, freeRounds int, at time.Time) (users.Account, error) {
	row := tx.QueryRow(`
		UPDATE users
		SET free_rounds = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+accountColumns,
		userID, freeRounds, at,
	)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, users.ErrUserNotFound
		}

		return users.Account{}, fmt.Errorf("set free rounds: %w", err)
	}

	return acc, nil
}
