// Package gp implements the Gamma-Poisson distribution family: non-negative
// integer observations with a Gamma prior on the Poisson rate. It is the
// second built-in family and exists partly to demonstrate that new families
// plug into the mixture core without core changes.
package gp

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/mixgo/codec"
	"github.com/hupe1980/mixgo/model"
)

var (
	// ErrBadParams is returned when shape or rate is not positive.
	ErrBadParams = errors.New("gp: shape and rate must be positive")
	// ErrBadValue is returned for a negative observation.
	ErrBadValue = errors.New("gp: value must be non-negative")
	// ErrValueUnderflow is returned when removing from an empty group.
	ErrValueUnderflow = errors.New("gp: removing value from empty group")
	// ErrMalformedRecord is returned when a persisted record fails to decode.
	ErrMalformedRecord = errors.New("gp: malformed record")
)

// Model is the Gamma-Poisson family with Gamma(shape, rate) prior on the
// Poisson rate. Partition-structure scoring is delegated to the embedded
// prior.
type Model struct {
	prior model.PartitionScorer
	shape float64
	rate  float64
}

var _ model.Model[int] = (*Model)(nil)

// New creates a Gamma-Poisson model.
func New(shape, rate float64, prior model.PartitionScorer) (*Model, error) {
	if shape <= 0 || rate <= 0 || math.IsNaN(shape) || math.IsNaN(rate) {
		return nil, fmt.Errorf("%w: shape %g, rate %g", ErrBadParams, shape, rate)
	}
	return &Model{prior: prior, shape: shape, rate: rate}, nil
}

// Init creates a fresh, empty group accumulator.
func (m *Model) Init(_ *rand.Rand) model.Group[int] {
	return &Group{m: m}
}

// ScoreAddValue delegates to the partition prior.
func (m *Model) ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount int) float64 {
	return m.prior.ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount)
}

// ScoreCounts delegates to the partition prior.
func (m *Model) ScoreCounts(counts []int) float64 {
	return m.prior.ScoreCounts(counts)
}

// ScoreGroup returns the group's marginal likelihood with the Poisson rate
// integrated out.
func (m *Model) ScoreGroup(g model.Group[int], _ *rand.Rand) float64 {
	grp := g.(*Group)
	postShape := m.shape + float64(grp.sum)
	postRate := m.rate + float64(grp.n)
	return lgamma(postShape) - lgamma(m.shape) +
		m.shape*math.Log(m.rate) - postShape*math.Log(postRate) -
		grp.logProdFactorial
}

// Group accumulates the sufficient statistics of one cluster: observation
// count, observation sum, and the log-product of observation factorials.
type Group struct {
	m                *Model
	n                int
	sum              int
	logProdFactorial float64
}

var _ model.Group[int] = (*Group)(nil)

// AddValue folds one observation into the group.
func (g *Group) AddValue(value int, _ *rand.Rand) error {
	if value < 0 {
		return fmt.Errorf("%w: %d", ErrBadValue, value)
	}
	g.n++
	g.sum += value
	g.logProdFactorial += lgamma(float64(value) + 1)
	return nil
}

// RemoveValue removes one previously added observation.
func (g *Group) RemoveValue(value int, _ *rand.Rand) error {
	if value < 0 {
		return fmt.Errorf("%w: %d", ErrBadValue, value)
	}
	if g.n == 0 || g.sum < value {
		return fmt.Errorf("%w: value %d", ErrValueUnderflow, value)
	}
	g.n--
	g.sum -= value
	g.logProdFactorial -= lgamma(float64(value) + 1)
	return nil
}

// Score returns the posterior predictive (negative binomial) log-probability
// of the observation under the group's current state.
func (g *Group) Score(value int, _ *rand.Rand) float64 {
	postShape := g.m.shape + float64(g.sum)
	postRate := g.m.rate + float64(g.n)
	v := float64(value)
	return lgamma(postShape+v) - lgamma(postShape) - lgamma(v+1) +
		postShape*math.Log(postRate) - (postShape+v)*math.Log(postRate+1)
}

// Size returns the group's occupancy.
func (g *Group) Size() int { return g.n }

// Sum returns the sum of the group's observations.
func (g *Group) Sum() int { return g.sum }

// GroupRecord is the persisted form of one group's sufficient statistics.
type GroupRecord struct {
	Count            int     `json:"count"`
	Sum              int     `json:"sum"`
	LogProdFactorial float64 `json:"log_prod_factorial"`
}

// Codec returns the group persistence capability for this model.
func (m *Model) Codec(c codec.Codec) model.GroupCodec[int] {
	if c == nil {
		c = codec.Default
	}
	return groupCodec{m: m, c: c}
}

type groupCodec struct {
	m *Model
	c codec.Codec
}

func (gc groupCodec) EncodeGroup(g model.Group[int]) ([]byte, error) {
	grp, ok := g.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: not a gp group", ErrMalformedRecord)
	}
	return gc.c.Marshal(GroupRecord{
		Count:            grp.n,
		Sum:              grp.sum,
		LogProdFactorial: grp.logProdFactorial,
	})
}

func (gc groupCodec) DecodeGroup(data []byte) (model.Group[int], error) {
	var rec GroupRecord
	if err := gc.c.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if rec.Count < 0 || rec.Sum < 0 {
		return nil, fmt.Errorf("%w: count %d, sum %d", ErrMalformedRecord, rec.Count, rec.Sum)
	}
	return &Group{
		m:                gc.m,
		n:                rec.Count,
		sum:              rec.Sum,
		logProdFactorial: rec.LogProdFactorial,
	}, nil
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
