package users

import (
	"database/sql"

	"github.com/fastprodman/crashgame/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

const accountColumns = `id, balance, free_rounds, created_at, updated_at`

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (users.Account, error) {
	var acc users.Account

	err := row.Scan(&acc.ID, &acc.BalanceMinor, &acc.FreeRounds, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return users.Account{}, err
	}

	return acc, nil
}
