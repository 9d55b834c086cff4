package outcome

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleCrashPoint_Ranges(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(rand.NewPCG(1, 2), DefaultDistribution)
	require.NoError(t, err)

	const n = 20_000

	early := 0

	for range n {
		cp := g.SampleCrashPoint()

		switch {
		case cp >= 1.1 && cp < 1.7:
			early++
		case cp >= 2.0 && cp < 5.0:
		default:
			t.Fatalf("crash point %v outside both branches", cp)
		}
	}

	share := float64(early) / n
	require.InDelta(t, 0.7, share, 0.02, "early-crash share drifted: %v", share)
}

func TestSampleCrashPoint_ReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	a, err := NewGenerator(rand.NewPCG(42, 42), DefaultDistribution)
	require.NoError(t, err)
	b, err := NewGenerator(rand.NewPCG(42, 42), DefaultDistribution)
	require.NoError(t, err)

	for range 100 {
		require.Equal(t, a.SampleCrashPoint(), b.SampleCrashPoint())
	}
}

func TestSampleCrashPoint_SingleBranch(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(nil, Distribution{Branches: []Branch{{Weight: 5, Min: 3, Max: 3.5}}})
	require.NoError(t, err)

	for range 1000 {
		cp := g.SampleCrashPoint()
		require.GreaterOrEqual(t, cp, 3.0)
		require.Less(t, cp, 3.5)
	}
}

func TestComputePayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bet        int64
		multiplier float64
		want       int64
		wantErr    error
	}{
		{name: "fifty_at_two_and_half", bet: 5000, multiplier: 2.5, want: 12_500},
		{name: "identity", bet: 1015, multiplier: 1, want: 1015},
		{name: "zero_multiplier", bet: 1000, multiplier: 0, want: 0},
		{name: "rounds_to_cent", bet: 333, multiplier: 1.5, want: 500},
		{name: "float_noise", bet: 10, multiplier: 1.1 + 0.2, want: 13},
		{name: "zero_bet", bet: 0, multiplier: 2, wantErr: ErrInvalidBet},
		{name: "negative_bet", bet: -5, multiplier: 2, wantErr: ErrInvalidBet},
		{name: "negative_multiplier", bet: 100, multiplier: -1, wantErr: ErrInvalidMultiplier},
		{name: "nan_multiplier", bet: 100, multiplier: math.NaN(), wantErr: ErrInvalidMultiplier},
		{name: "inf_multiplier", bet: 100, multiplier: math.Inf(1), wantErr: ErrInvalidMultiplier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ComputePayout(tt.bet, tt.multiplier)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDistribution_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dist Distribution
		ok   bool
	}{
		{name: "default", dist: DefaultDistribution, ok: true},
		{name: "empty", dist: Distribution{}},
		{name: "zero_weight", dist: Distribution{Branches: []Branch{{Weight: 0, Min: 1, Max: 2}}}},
		{name: "min_below_one", dist: Distribution{Branches: []Branch{{Weight: 1, Min: 0.5, Max: 2}}}},
		{name: "inverted_range", dist: Distribution{Branches: []Branch{{Weight: 1, Min: 3, Max: 2}}}},
		{name: "nan_bound", dist: Distribution{Branches: []Branch{{Weight: 1, Min: 1, Max: math.NaN()}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.dist.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidDistribution)
		})
	}
}

func TestLoadDistribution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "crash.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
branches:
  - {weight: 0.9, min: 1.0, max: 1.5}
  - {weight: 0.1, min: 10, max: 20}
`), 0o600))

	d, err := LoadDistribution(good)
	require.NoError(t, err)
	require.Equal(t, []Branch{{Weight: 0.9, Min: 1, Max: 1.5}, {Weight: 0.1, Min: 10, Max: 20}}, d.Branches)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("branches: []\n"), 0o600))

	_, err = LoadDistribution(bad)
	require.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = LoadDistribution(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

func TestSampleCrashPoint_StaysBelowMax(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(constSource(math.MaxUint64), DefaultDistribution)
	require.NoError(t, err)

	cp := g.SampleCrashPoint()
	require.GreaterOrEqual(t, cp, 2.0)
	require.Less(t, cp, 5.0)

	single, err := NewGenerator(constSource(math.MaxUint64), Distribution{
		Branches: []Branch{{Weight: 1, Min: 1.1, Max: 1.7}},
	})
	require.NoError(t, err)

	cp = single.SampleCrashPoint()
	require.GreaterOrEqual(t, cp, 1.1)
	require.Less(t, cp, 1.7)

	low, err := NewGenerator(constSource(0), DefaultDistribution)
	require.NoError(t, err)
	require.InDelta(t, 1.1, low.SampleCrashPoint(), 1e-12)
}
