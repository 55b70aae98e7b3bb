// Package clustering provides partition priors over group-size structures:
// the two-parameter Pitman-Yor process and its Chinese-restaurant-process
// special case. Both satisfy model.PartitionScorer and plug directly into
// the mixture Driver.
package clustering

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBadConcentration is returned when alpha <= -discount.
	ErrBadConcentration = errors.New("clustering: concentration must exceed negated discount")
	// ErrBadDiscount is returned when the discount is outside [0, 1).
	ErrBadDiscount = errors.New("clustering: discount must be in [0, 1)")
)

// PitmanYor is the two-parameter exchangeable partition prior. With
// Discount == 0 it reduces to the Dirichlet process (Chinese restaurant
// process) with concentration Alpha.
type PitmanYor struct {
	alpha    float64
	discount float64
}

// NewPitmanYor creates a Pitman-Yor prior with concentration alpha and
// discount d, requiring 0 <= d < 1 and alpha > -d.
func NewPitmanYor(alpha, discount float64) (*PitmanYor, error) {
	if discount < 0 || discount >= 1 {
		return nil, fmt.Errorf("%w: got %g", ErrBadDiscount, discount)
	}
	if alpha <= -discount {
		return nil, fmt.Errorf("%w: alpha %g, discount %g", ErrBadConcentration, alpha, discount)
	}
	return &PitmanYor{alpha: alpha, discount: discount}, nil
}

// NewCRP creates a Chinese-restaurant-process prior with concentration alpha.
func NewCRP(alpha float64) (*PitmanYor, error) {
	return NewPitmanYor(alpha, 0)
}

// Alpha returns the concentration parameter.
func (p *PitmanYor) Alpha() float64 { return p.alpha }

// Discount returns the discount parameter.
func (p *PitmanYor) Discount() float64 { return p.discount }

// ScoreAddValue returns the log-probability that a new observation joins a
// group of the given size. For an empty group the new-table mass
// (alpha + d*K) is split evenly across the emptyGroupCount available empty
// slots, so that scores over all packed groups normalize.
func (p *PitmanYor) ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount int) float64 {
	denom := p.alpha + float64(sampleSize)
	if groupSize == 0 {
		newMass := p.alpha + p.discount*float64(nonemptyGroupCount)
		return math.Log(newMass/denom) - math.Log(float64(emptyGroupCount))
	}
	return math.Log((float64(groupSize) - p.discount) / denom)
}

// ScoreCounts returns the log-probability of the partition described by
// counts (the exchangeable partition probability). Zero entries are ignored.
// Computed by sequential construction; exchangeability makes the result
// independent of order.
func (p *PitmanYor) ScoreCounts(counts []int) float64 {
	var score float64
	sampleSize := 0
	nonempty := 0

	for _, c := range counts {
		if c == 0 {
			continue
		}
		// First observation opens the group.
		score += math.Log((p.alpha + p.discount*float64(nonempty)) / (p.alpha + float64(sampleSize)))
		sampleSize++
		// Remaining observations join it.
		for s := 1; s < c; s++ {
			score += math.Log((float64(s) - p.discount) / (p.alpha + float64(sampleSize)))
			sampleSize++
		}
		nonempty++
	}

	return score
}
