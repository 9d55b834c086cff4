package rounds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/crashgame/internal/infra/pgtestutil"
	"github.com/fastprodman/crashgame/internal/repos/rounds"
	"github.com/google/uuid"
)

func newRound(userID uuid.UUID, startedAt time.Time, crash float64) rounds.ActiveRound {
	return rounds.ActiveRound{
		ID:         uuid.New(),
		UserID:     userID,
		BetMinor:   500,
		CrashPoint: crash,
		StartedAt:  startedAt,
		CrashAt:    startedAt.Add(time.Duration((crash - 1) / 0.2 * float64(time.Second))),
	}
}

func TestRounds_InsertGetDelete(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := pgtestutil.SeedUser(t, db, 0, 0)
	repo := New(db)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = repo.Get(tx, userID)
	if !errors.Is(err, rounds.ErrNoActiveRound) {
		t.Fatalf("empty get: want ErrNoActiveRound, got %v", err)
	}

	r := newRound(userID, time.Now().UTC().Truncate(time.Microsecond), 2.5)

	err = repo.Insert(tx, r)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(tx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != r.ID || got.BetMinor != 500 || got.CrashPoint != 2.5 || !got.CrashAt.Equal(r.CrashAt) {
		t.Fatalf("unexpected round: %+v", got)
	}

	err = repo.Delete(tx, userID, uuid.New())
	if !errors.Is(err, rounds.ErrNoActiveRound) {
		t.Fatalf("delete other round: want ErrNoActiveRound, got %v", err)
	}

	err = repo.Delete(tx, userID, r.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = repo.Delete(tx, userID, r.ID)
	if !errors.Is(err, rounds.ErrNoActiveRound) {
		t.Fatalf("second delete: want ErrNoActiveRound, got %v", err)
	}
}

func TestRounds_InsertDuplicate(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := pgtestutil.SeedUser(t, db, 0, 0)
	repo := New(db)
	now := time.Now().UTC()

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.Insert(tx, newRound(userID, now, 1.5))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err = repo.Insert(tx, newRound(userID, now, 3.0))
	if !errors.Is(err, rounds.ErrActiveRoundExists) {
		t.Fatalf("second insert: want ErrActiveRoundExists, got %v", err)
	}
}

func TestRounds_ListExpired(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	// crash_at = started + 2.5s, 5s, 10s
	older := pgtestutil.SeedUser(t, db, 0, 0)
	old := pgtestutil.SeedUser(t, db, 0, 0)
	live := pgtestutil.SeedUser(t, db, 0, 0)

	oldRound := newRound(old, base, 2.0)
	olderRound := newRound(older, base, 1.5)

	for _, r := range []rounds.ActiveRound{
		oldRound,
		olderRound,
		newRound(live, base, 3.0),
	} {
		if err := repo.Insert(tx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	ids, err := repo.ListExpired(t.Context(), base.Add(6*time.Second), 10)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	want := []rounds.ExpiredRound{
		{UserID: older, RoundID: olderRound.ID},
		{UserID: old, RoundID: oldRound.ID},
	}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("expired rounds: want %v, got %v", want, ids)
	}

	ids, err = repo.ListExpired(t.Context(), base.Add(time.Hour), 1)
	if err != nil {
		t.Fatalf("list expired with limit: %v", err)
	}
	if len(ids) != 1 || ids[0] != want[0] {
		t.Fatalf("limited rounds: want [%v], got %v", want[0], ids)
	}
}
