package outcome

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidDistribution = errors.New("invalid crash distribution")

// Branch is one uniform range of crash points, chosen with probability
// Weight / sum(weights).
type Branch struct {
	Weight float64 `yaml:"weight"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

type Distribution struct {
	Branches []Branch `yaml:"branches"`
}

// DefaultDistribution crashes early (1.1x-1.7x) in 70% of rounds and lets
// the remaining 30% run to 2x-5x.
var DefaultDistribution = Distribution{
	Branches: []Branch{
		{Weight: 0.7, Min: 1.1, Max: 1.7},
		{Weight: 0.3, Min: 2.0, Max: 5.0},
	},
}

func (d Distribution) Validate() error {
	if len(d.Branches) == 0 {
		return fmt.Errorf("%w: no branches", ErrInvalidDistribution)
	}

	var total float64

	for i, b := range d.Branches {
		switch {
		case !finite(b.Weight) || b.Weight <= 0:
			return fmt.Errorf("%w: branch %d weight must be > 0", ErrInvalidDistribution, i)
		case !finite(b.Min) || !finite(b.Max):
			return fmt.Errorf("%w: branch %d bounds must be finite", ErrInvalidDistribution, i)
		case b.Min < 1:
			return fmt.Errorf("%w: branch %d min must be >= 1", ErrInvalidDistribution, i)
		case b.Max <= b.Min:
			return fmt.Errorf("%w: branch %d max must be > min", ErrInvalidDistribution, i)
		}

		total += b.Weight
	}

	if !finite(total) {
		return fmt.Errorf("%w: weights overflow", ErrInvalidDistribution)
	}

	return nil
}

// LoadDistribution reads a YAML branch table:
//
//	branches:
//	  - {weight: 0.7, min: 1.1, max: 1.7}
//	  - {weight: 0.3, min: 2.0, max: 5.0}
func LoadDistribution(path string) (Distribution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Distribution{}, fmt.Errorf("read crash table: %w", err)
	}

	var d Distribution

	err = yaml.Unmarshal(raw, &d)
	if err != nil {
		return Distribution{}, fmt.Errorf("decode crash table: %w", err)
	}

	err = d.Validate()
	if err != nil {
		return Distribution{}, err
	}

	return d, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
