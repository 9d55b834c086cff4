// Package outcome decides how a round ends: it samples the crash point
// and computes payouts. It holds no state besides its random source.
package outcome

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBet        = errors.New("bet must be > 0")
	ErrInvalidMultiplier = errors.New("multiplier must be a finite number >= 0")
)

// Generator samples crash points. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	dist Distribution
	sum  float64
}

// NewGenerator returns a generator drawing from src. A nil src uses a
// randomly seeded PCG source; tests pass a fixed seed to replay rounds.
func NewGenerator(src rand.Source, dist Distribution) (*Generator, error) {
	err := dist.Validate()
	if err != nil {
		return nil, err
	}

	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	var sum float64
	for _, b := range dist.Branches {
		sum += b.Weight
	}

	return &Generator{rnd: rand.New(src), dist: dist, sum: sum}, nil
}

// SampleCrashPoint picks a branch by weight, then a value uniformly from
// [Min, Max) of that branch.
func (g *Generator) SampleCrashPoint() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	pick := g.rnd.Float64() * g.sum
	b := g.dist.Branches[len(g.dist.Branches)-1]

	for _, cand := range g.dist.Branches {
		if pick < cand.Weight {
			b = cand
			break
		}

		pick -= cand.Weight
	}

	v := b.Min + g.rnd.Float64()*(b.Max-b.Min)

	// Rounding can land exactly on Max; the range is half-open.
	if v >= b.Max {
		v = math.Nextafter(b.Max, b.Min)
	}

	return v
}

// ComputePayout returns bet * multiplier in minor units, rounded half away
// from zero. It does not compare multiplier against any crash point.
func ComputePayout(betMinor int64, multiplier float64) (int64, error) {
	if betMinor <= 0 {
		return 0, ErrInvalidBet
	}

	if !finite(multiplier) || multiplier < 0 {
		return 0, ErrInvalidMultiplier
	}

	win := decimal.NewFromInt(betMinor).Mul(decimal.NewFromFloat(multiplier)).Round(0)

	return money.FromDecimal(win.Shift(-money.Scale))
}
