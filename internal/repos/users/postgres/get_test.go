package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/crashgame/internal/infra/pgtestutil"
	"github.com/fastprodman/crashgame/internal/repos/users"
	"github.com/google/uuid"
)

func TestUsers_CreateAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	acc := users.Account{
		ID:           uuid.New(),
		BalanceMinor: 100000,
		FreeRounds:   3,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := repo.Create(ctx, acc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != acc.ID || created.BalanceMinor != 100000 || created.FreeRounds != 3 {
		t.Fatalf("unexpected created account: %+v", created)
	}

	_, err = repo.Create(ctx, acc)
	if !errors.Is(err, users.ErrUserExists) {
		t.Fatalf("duplicate create: want ErrUserExists, got %v", err)
	}

	got, err := repo.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at mismatch: want %v, got %v", now, got.CreatedAt)
	}

	_, err = repo.Get(ctx, uuid.New())
	if !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("missing user: want ErrUserNotFound, got %v", err)
	}
}
