package users

import (
	"context"
	"fmt"

	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/users"
)

func (r *usersRepo) Create(ctx context.Context, acc users.Account) (users.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, balance, free_rounds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+accountColumns,
		acc.ID, acc.BalanceMinor, acc.FreeRounds, acc.CreatedAt,
	)

	created, err := scanAccount(row)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "users_pkey") {
			return users.Account{}, users.ErrUserExists
		}

		return users.Account{}, fmt.Errorf("create user: %w", pgutils.Classify(err))
	}

	return created, nil
}
