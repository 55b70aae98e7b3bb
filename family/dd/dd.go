// Package dd implements the Dirichlet-Discrete distribution family: discrete
// outcomes in [0, dim) with a Dirichlet prior over outcome probabilities.
// It provides the full model capability for the mixture core, plus posterior
// sampling and record persistence.
package dd

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distmv"

	"github.com/hupe1980/mixgo/model"
)

var (
	// ErrBadAlphas is returned when the concentration vector is empty or
	// contains a non-positive entry.
	ErrBadAlphas = errors.New("dd: alphas must be positive and non-empty")
	// ErrBadValue is returned for an outcome outside [0, dim).
	ErrBadValue = errors.New("dd: value out of range")
	// ErrValueUnderflow is returned when removing an outcome that was never
	// added.
	ErrValueUnderflow = errors.New("dd: removing value not present in group")
)

// Model is the Dirichlet-Discrete family. The per-outcome concentration
// parameters are the shared hyperparameters of the mixture, captured at
// construction and read-only afterwards. Partition-structure scoring is
// delegated to the embedded prior.
type Model struct {
	prior    model.PartitionScorer
	alphas   []float64
	alphaSum float64
}

var _ model.Model[int] = (*Model)(nil)

// New creates a Dirichlet-Discrete model with the given per-outcome
// concentration parameters and partition prior.
func New(alphas []float64, prior model.PartitionScorer) (*Model, error) {
	if len(alphas) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrBadAlphas)
	}
	var sum float64
	for i, a := range alphas {
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: alphas[%d] = %g", ErrBadAlphas, i, a)
		}
		sum += a
	}
	return &Model{
		prior:    prior,
		alphas:   append([]float64(nil), alphas...),
		alphaSum: sum,
	}, nil
}

// Dim returns the number of discrete outcomes.
func (m *Model) Dim() int { return len(m.alphas) }

// Alphas returns a copy of the concentration parameters.
func (m *Model) Alphas() []float64 { return append([]float64(nil), m.alphas...) }

// Init creates a fresh, empty group accumulator.
func (m *Model) Init(_ *rand.Rand) model.Group[int] {
	return &Group{
		m:      m,
		counts: make([]int, len(m.alphas)),
	}
}

// ScoreAddValue delegates to the partition prior.
func (m *Model) ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount int) float64 {
	return m.prior.ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount)
}

// ScoreCounts delegates to the partition prior.
func (m *Model) ScoreCounts(counts []int) float64 {
	return m.prior.ScoreCounts(counts)
}

// ScoreGroup returns the group's marginal likelihood: the log-probability of
// its observations with the outcome probabilities integrated out.
func (m *Model) ScoreGroup(g model.Group[int], _ *rand.Rand) float64 {
	grp := g.(*Group)
	score := lgamma(m.alphaSum) - lgamma(m.alphaSum+float64(grp.size))
	for k, c := range grp.counts {
		if c != 0 {
			score += lgamma(m.alphas[k]+float64(c)) - lgamma(m.alphas[k])
		}
	}
	return score
}

// Group accumulates per-outcome observation counts for one cluster.
type Group struct {
	m      *Model
	counts []int
	size   int
}

var _ model.Group[int] = (*Group)(nil)

// AddValue folds one outcome into the group.
func (g *Group) AddValue(value int, _ *rand.Rand) error {
	if value < 0 || value >= len(g.counts) {
		return fmt.Errorf("%w: %d (dim %d)", ErrBadValue, value, len(g.counts))
	}
	g.counts[value]++
	g.size++
	return nil
}

// RemoveValue removes one previously added outcome.
func (g *Group) RemoveValue(value int, _ *rand.Rand) error {
	if value < 0 || value >= len(g.counts) {
		return fmt.Errorf("%w: %d (dim %d)", ErrBadValue, value, len(g.counts))
	}
	if g.counts[value] == 0 {
		return fmt.Errorf("%w: outcome %d", ErrValueUnderflow, value)
	}
	g.counts[value]--
	g.size--
	return nil
}

// Score returns the posterior predictive log-probability of the outcome under
// the group's current state. The outcome must be in [0, dim).
func (g *Group) Score(value int, _ *rand.Rand) float64 {
	return math.Log((g.m.alphas[value] + float64(g.counts[value])) /
		(g.m.alphaSum + float64(g.size)))
}

// Size returns the group's total occupancy.
func (g *Group) Size() int { return g.size }

// Counts returns a copy of the per-outcome counts.
func (g *Group) Counts() []int { return append([]int(nil), g.counts...) }

// SampleValue draws one outcome from the group's posterior predictive.
func (g *Group) SampleValue(rng *rand.Rand) int {
	total := g.m.alphaSum + float64(g.size)
	u := rng.Float64() * total
	for k := range g.counts {
		u -= g.m.alphas[k] + float64(g.counts[k])
		if u < 0 {
			return k
		}
	}
	return len(g.counts) - 1 // floating-point slack
}

// SampleDistribution draws outcome probabilities from the group's posterior
// Dirichlet. If dst is non-nil it must have length dim and is reused.
func (g *Group) SampleDistribution(rng *rand.Rand, dst []float64) []float64 {
	post := make([]float64, len(g.counts))
	for k, c := range g.counts {
		post[k] = g.m.alphas[k] + float64(c)
	}
	d := distmv.NewDirichlet(post, source{rng})
	return d.Rand(dst)
}

// source adapts a rand/v2 stream to the generator interface gonum's
// distributions consume.
type source struct {
	rng *rand.Rand
}

func (s source) Uint64() uint64 { return s.rng.Uint64() }

// Seed is a no-op; the wrapped stream is seeded by its owner.
func (s source) Seed(uint64) {}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
