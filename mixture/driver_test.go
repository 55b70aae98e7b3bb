package mixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mixgo/model"
	"github.com/hupe1980/mixgo/testutil"
)

// stubScorer records the arguments of every ScoreAddValue call and returns
// deterministic values, so tests can verify the vectorized scoring contract
// without real prior math.
type stubScorer struct {
	calls [][4]int
}

func (s *stubScorer) ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount int) float64 {
	s.calls = append(s.calls, [4]int{groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount})
	return float64(groupSize)
}

func (s *stubScorer) ScoreCounts(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	return float64(total)
}

func TestDriver_Init(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{2, 0}))

	assert.Equal(t, []int{2, 0}, d.Counts())
	assert.Equal(t, 2, d.SampleSize())
	assert.Equal(t, []model.PackedID{1}, d.EmptyGroupIDs())

	c, err := d.Count(0)
	require.NoError(t, err)
	assert.Equal(t, 2, c)
	_, err = d.Count(2)
	assert.ErrorIs(t, err, ErrBadGroupID)
}

func TestDriver_Init_NoEmptyGroup(t *testing.T) {
	d := NewDriver()
	err := d.Init([]int{2, 1})
	assert.ErrorIs(t, err, ErrNoEmptyGroup)
}

func TestDriver_Init_NegativeCount(t *testing.T) {
	d := NewDriver()
	err := d.Init([]int{2, -1, 0})
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestDriver_AddValue(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{2, 0}))

	// Group 0 is already occupied: no structural transition.
	created, err := d.AddValue(0, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []int{3, 0}, d.Counts())
	assert.Equal(t, 3, d.SampleSize())

	// Group 1 was empty: a fresh empty tail slot is appended.
	created, err = d.AddValue(1, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []int{3, 1, 0}, d.Counts())
	assert.Equal(t, []model.PackedID{2}, d.EmptyGroupIDs())
	assert.Equal(t, 4, d.SampleSize())
}

func TestDriver_AddValue_Errors(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{1, 0}))

	_, err := d.AddValue(0, 0)
	assert.ErrorIs(t, err, ErrZeroCount)

	_, err = d.AddValue(0, -2)
	assert.ErrorIs(t, err, ErrZeroCount)

	_, err = d.AddValue(2, 1)
	assert.ErrorIs(t, err, ErrBadGroupID)
}

func TestDriver_RemoveValue_CompactsEmptiedGroup(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{1, 0}))

	// Group 0 empties; the (empty) last slot swaps in and the sequence
	// shrinks, leaving exactly one empty group.
	removed, err := d.RemoveValue(0, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []int{0}, d.Counts())
	assert.Equal(t, []model.PackedID{0}, d.EmptyGroupIDs())
	assert.Equal(t, 0, d.SampleSize())
}

func TestDriver_RemoveValue_LastSlot(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{0, 1}))

	removed, err := d.RemoveValue(1, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []int{0}, d.Counts())
	assert.Equal(t, []model.PackedID{0}, d.EmptyGroupIDs())
}

func TestDriver_RemoveValue_SwapsOccupiedTail(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{1, 5, 0}))

	// Group 1 stays; removing group 0's only observation must not disturb it.
	removed, err := d.RemoveValue(0, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []int{0, 5}, d.Counts())
	assert.Equal(t, []model.PackedID{0}, d.EmptyGroupIDs())
	require.NoError(t, d.CheckInvariants())
}

func TestDriver_RemoveValue_PartialDoesNotCompact(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{3, 0}))

	removed, err := d.RemoveValue(0, 2)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []int{1, 0}, d.Counts())
}

func TestDriver_RemoveValue_Errors(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{2, 0}))

	_, err := d.RemoveValue(0, 0)
	assert.ErrorIs(t, err, ErrZeroCount)

	_, err = d.RemoveValue(5, 1)
	assert.ErrorIs(t, err, ErrBadGroupID)

	_, err = d.RemoveValue(1, 1)
	assert.ErrorIs(t, err, ErrEmptyGroupRemove)

	_, err = d.RemoveValue(0, 3)
	assert.ErrorIs(t, err, ErrRemoveTooMany)
}

func TestDriver_ScoreValue(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{3, 1, 0}))

	scorer := &stubScorer{}
	scores := make([]float64, 3)
	require.NoError(t, d.ScoreValue(scorer, scores))

	assert.Equal(t, []float64{3, 1, 0}, scores)
	// Every call sees the same structure: 2 nonempty groups, 4 samples,
	// 1 empty group.
	require.Len(t, scorer.calls, 3)
	for _, call := range scorer.calls {
		assert.Equal(t, 2, call[1])
		assert.Equal(t, 4, call[2])
		assert.Equal(t, 1, call[3])
	}
}

func TestDriver_ScoreValue_BufferSize(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{3, 1, 0}))

	err := d.ScoreValue(&stubScorer{}, make([]float64, 2))
	assert.ErrorIs(t, err, ErrScoreBufferSize)

	err = d.ScoreValue(&stubScorer{}, make([]float64, 4))
	assert.ErrorIs(t, err, ErrScoreBufferSize)
}

func TestDriver_ScoreMixture(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.Init([]int{3, 1, 0}))

	assert.Equal(t, 4.0, d.ScoreMixture(&stubScorer{}))
}

func TestDriver_RandomOps_KeepInvariants(t *testing.T) {
	rng := testutil.NewRNG(7)
	d := NewDriver()
	require.NoError(t, d.Init(testutil.RandomCounts(rng, 6, 4)))
	require.NoError(t, d.CheckInvariants())

	for step := 0; step < 2000; step++ {
		groupID := model.PackedID(rng.IntN(d.GroupCount()))
		if rng.IntN(2) == 0 || d.Counts()[groupID] == 0 {
			_, err := d.AddValue(groupID, 1)
			require.NoError(t, err)
		} else {
			_, err := d.RemoveValue(groupID, 1)
			require.NoError(t, err)
		}
		require.NoError(t, d.CheckInvariants(), "step %d", step)
	}
}
