package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/google/uuid"
)

func (r *usersRepo) Get(ctx context.Context, userID uuid.UUID) (users.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE id = $1
	`, userID)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, users.ErrUserNotFound
		}

		return users.Account{}, fmt.Errorf("get user: %w", pgutils.Classify(err))
	}

	return acc, nil
}
