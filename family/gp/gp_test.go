package gp

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
	m, err := New(1.5, 2.0, prior)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	prior, err := clustering.NewCRP(1.0)
	require.NoError(t, err)

	_, err = New(0, 1, prior)
	assert.ErrorIs(t, err, ErrBadParams)

	_, err = New(1, -1, prior)
	assert.ErrorIs(t, err, ErrBadParams)

	_, err = New(math.NaN(), 1, prior)
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestGroup_AddRemove(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)

	require.NoError(t, g.AddValue(3, nil))
	require.NoError(t, g.AddValue(0, nil))
	require.NoError(t, g.AddValue(5, nil))
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, 8, g.Sum())

	require.NoError(t, g.RemoveValue(3, nil))
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, 5, g.Sum())

	assert.ErrorIs(t, g.AddValue(-1, nil), ErrBadValue)
	assert.ErrorIs(t, g.RemoveValue(7, nil), ErrValueUnderflow)

	require.NoError(t, g.RemoveValue(0, nil))
	require.NoError(t, g.RemoveValue(5, nil))
	assert.ErrorIs(t, g.RemoveValue(0, nil), ErrValueUnderflow)
}

// The predictive mass over all non-negative integers must sum to one; the tail
// beyond the truncation point is negligible for small posteriors.
func TestGroup_ScoreSumsToOne(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(2, nil))
	require.NoError(t, g.AddValue(4, nil))

	var total float64
	for v := 0; v < 200; v++ {
		total += math.Exp(g.Score(v, nil))
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

// Adding an observation must change the marginal likelihood by exactly its
// predictive log-probability at the time of the add.
func TestScoreGroup_ChainRule(t *testing.T) {
	m := newTestModel(t)
	rng := testutil.NewRNG(7)
	g := m.Init(nil).(*Group)

	for i := 0; i < 50; i++ {
		v := rng.IntN(12)
		before := m.ScoreGroup(g, nil)
		pred := g.Score(v, nil)
		require.NoError(t, g.AddValue(v, nil))
		after := m.ScoreGroup(g, nil)
		assert.InDelta(t, pred, after-before, 1e-9, "step %d value %d", i, v)
	}
}

// Removing an observation must exactly undo its contribution.
func TestScoreGroup_RemoveUndoesAdd(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(3, nil))
	require.NoError(t, g.AddValue(1, nil))
	base := m.ScoreGroup(g, nil)

	require.NoError(t, g.AddValue(6, nil))
	require.NoError(t, g.RemoveValue(6, nil))
	assert.InDelta(t, base, m.ScoreGroup(g, nil), 1e-12)
}

func TestGroupCodec_RoundTrip(t *testing.T) {
	m := newTestModel(t)
	g := m.Init(nil).(*Group)
	require.NoError(t, g.AddValue(4, nil))
	require.NoError(t, g.AddValue(2, nil))

	gc := m.Codec(nil)
	data, err := gc.EncodeGroup(g)
	require.NoError(t, err)

	decoded, err := gc.DecodeGroup(data)
	require.NoError(t, err)
	got := decoded.(*Group)
	assert.Equal(t, 2, got.Size())
	assert.Equal(t, 6, got.Sum())
	assert.InDelta(t, m.ScoreGroup(g, nil), m.ScoreGroup(got, nil), 1e-12)
}

func TestGroupCodec_Malformed(t *testing.T) {
	m := newTestModel(t)
	gc := m.Codec(nil)

	_, err := gc.DecodeGroup([]byte(`{"count":`))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = gc.DecodeGroup([]byte(`{"count":-1,"sum":0}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestModel_PriorDelegation(t *testing.T) {
	prior, err := clustering.NewCRP(2.0)
	require.NoError(t, err)
	m, err := New(1, 1, prior)
	require.NoError(t, err)

	assert.Equal(t,
		prior.ScoreAddValue(3, 2, 10, 1),
		m.ScoreAddValue(3, 2, 10, 1))
	assert.Equal(t,
		prior.ScoreCounts([]int{4, 2, 0}),
		m.ScoreCounts([]int{4, 2, 0}))
}

var _ model.Model[int] = (*Model)(nil)
