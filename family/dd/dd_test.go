package dd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mixgo/clustering"
	"github.com/hupe1980/mixgo/model"
	"github.com/hupe1980/mixgo/testutil"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	prior, err := clustering.NewCRP(1.0)
	require.NoError(t, err)
	m, err := New([]float64{0.5, 1.0, 2.5}, prior)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	prior, err := clustering.NewCRP(1.0)
	require.NoError(t, err)

	_, err = New(nil, prior)
	assert.ErrorIs(t, err, ErrBadAlphas)

	_, err = New([]float64{1.0, 0}, prior)
	assert.ErrorIs(t, err, ErrBadAlphas)

	_, err = New([]float64{1.0, -2}, prior)
	assert.ErrorIs(t, err, ErrBadAlphas)
}

func TestGroup_AddRemoveValue(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)

	require.NoError(t, g.AddValue(1, nil))
	require.NoError(t, g.AddValue(1, nil))
	require.NoError(t, g.AddValue(2, nil))
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []int{0, 2, 1}, g.Counts())

	require.NoError(t, g.RemoveValue(1, nil))
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, []int{0, 1, 1}, g.Counts())

	assert.ErrorIs(t, g.AddValue(3, nil), ErrBadValue)
	assert.ErrorIs(t, g.AddValue(-1, nil), ErrBadValue)
	assert.ErrorIs(t, g.RemoveValue(0, nil), ErrValueUnderflow)
}

func TestGroup_Score_Normalizes(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(0, nil))
	require.NoError(t, g.AddValue(2, nil))

	var total float64
	for v := 0; v < m.Dim(); v++ {
		total += math.Exp(g.Score(v, nil))
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

// The marginal likelihood must satisfy the chain rule: adding one observation
// changes ScoreGroup by exactly the predictive Score of that observation.
func TestScoreGroup_ChainRule(t *testing.T) {
	rng := testutil.NewRNG(5)
	m := newTestModel(t)
	g := m.Init(nil).(*Group)

	assert.Equal(t, 0.0, m.ScoreGroup(g, nil))

	for range 50 {
		v := rng.IntN(m.Dim())
		before := m.ScoreGroup(g, nil)
		predictive := g.Score(v, nil)
		require.NoError(t, g.AddValue(v, nil))
		after := m.ScoreGroup(g, nil)
		require.InDelta(t, predictive, after-before, 1e-9)
	}
}

func TestGroup_SampleValue(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(1, nil))

	a := g.SampleValue(testutil.NewRNG(42))
	b := g.SampleValue(testutil.NewRNG(42))
	assert.Equal(t, a, b, "same seed, same draw")
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, m.Dim())

	// All mass on one outcome: the draw is forced.
	heavy, err := New([]float64{1e-12, 1e-12, 1e6}, mustCRP(t))
	require.NoError(t, err)
	hg := heavy.Init(nil).(*Group)
	assert.Equal(t, 2, hg.SampleValue(testutil.NewRNG(1)))
}

func TestGroup_SampleDistribution(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(0, nil))

	probs := g.SampleDistribution(testutil.NewRNG(9), nil)
	require.Len(t, probs, m.Dim())

	var total float64
	for _, p := range probs {
		assert.Greater(t, p, 0.0)
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// The draw is driven by the supplied stream.
	again := g.SampleDistribution(testutil.NewRNG(9), make([]float64, m.Dim()))
	assert.Equal(t, probs, again, "same seed, same draw")
}

func TestModel_DelegatesPartitionScoring(t *testing.T) {
	prior, err := clustering.NewCRP(2.0)
	require.NoError(t, err)
	m, err := New([]float64{1, 1}, prior)
	require.NoError(t, err)

	counts := []int{3, 1, 0}
	assert.Equal(t, prior.ScoreCounts(counts), m.ScoreCounts(counts))
	assert.Equal(t, prior.ScoreAddValue(3, 2, 4, 1), m.ScoreAddValue(3, 2, 4, 1))
}

var _ model.Model[int] = (*Model)(nil)

func mustCRP(t *testing.T) *clustering.PitmanYor {
	t.Helper()
	prior, err := clustering.NewCRP(1.0)
	require.NoError(t, err)
	return prior
}
