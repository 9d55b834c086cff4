package round

import (
	"testing"
	"time"

	"github.com/fastprodman/crashgame/internal/infra/pgtestutil"
	"github.com/stretchr/testify/require"
)

func TestSweeper_CrashesExpiredRounds(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	clock := newFakeClock()
	s := newSession(db, 1.5, WithClock(clock.Now))
	w := NewSweeper(s, SweeperConfig{Grace: 10 * time.Second, Batch: 10})
	ctx := t.Context()

	expired := pgtestutil.SeedUser(t, db, 1000, 0)
	_, err := s.Start(ctx, expired, 1000)
	require.NoError(t, err)

	// Crash point 1.5 at 0.2/s is reached after 2.5s.
	clock.Advance(time.Minute)

	fresh := pgtestutil.SeedUser(t, db, 1000, 0)
	_, err = s.Start(ctx, fresh, 500)
	require.NoError(t, err)

	n, err := w.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = s.ForceCrash(ctx, expired)
	require.ErrorIs(t, err, ErrNoActiveRound)

	n, err = w.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// The fresh round is still active.
	_, err = s.ForceCrash(ctx, fresh)
	require.NoError(t, err)

	bal, _ := pgtestutil.Balance(t, db, expired)
	require.Equal(t, int64(0), bal)
}

func TestSweeper_SkipsRoundStartedAfterListing(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	clock := newFakeClock()
	s := newSession(db, 1.5, WithClock(clock.Now))
	w := NewSweeper(s, SweeperConfig{Grace: 10 * time.Second, Batch: 10})
	ctx := t.Context()

	id := pgtestutil.SeedUser(t, db, 1000, 0)

	first, err := s.Start(ctx, id, 400)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	expired, err := w.list(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, first.RoundID, expired[0].RoundID)

	// Between listing and settling, the user closes the listed round and
	// starts another one.
	_, err = s.ForceCrash(ctx, id)
	require.NoError(t, err)

	second, err := s.Start(ctx, id, 300)
	require.NoError(t, err)

	n, err := w.settle(ctx, expired)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	st, err := s.ForceCrash(ctx, id)
	require.NoError(t, err)
	require.Equal(t, second.RoundID, st.RoundID)

	bal, _ := pgtestutil.Balance(t, db, id)
	require.Equal(t, int64(300), bal)
}
