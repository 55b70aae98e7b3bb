package mixture

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mixgo/model"
)

// stubModel creates stubGroups with increasing serial numbers so swap
// semantics can be observed from outside.
type stubModel struct {
	inits int
}

func (m *stubModel) Init(_ *rand.Rand) model.Group[int] {
	m.inits++
	return &stubGroup{serial: m.inits}
}

func (m *stubModel) ScoreAddValue(_, _, _, _ int) float64 { return 0 }
func (m *stubModel) ScoreCounts(_ []int) float64          { return 0 }

func (m *stubModel) ScoreGroup(g model.Group[int], _ *rand.Rand) float64 {
	return float64(g.(*stubGroup).serial)
}

type stubGroup struct {
	serial int
	size   int
}

func (g *stubGroup) AddValue(_ int, _ *rand.Rand) error { g.size++; return nil }

func (g *stubGroup) RemoveValue(_ int, _ *rand.Rand) error {
	if g.size == 0 {
		return ErrEmptyGroupRemove
	}
	g.size--
	return nil
}

func (g *stubGroup) Score(value int, _ *rand.Rand) float64 {
	return float64(g.serial*100 + value)
}

func (g *stubGroup) Size() int { return g.size }

func TestSlave_AddGroup(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()

	s.AddGroup(m, nil)
	s.AddGroup(m, nil)

	assert.Equal(t, 2, s.GroupCount())
	g, err := s.Group(0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.(*stubGroup).serial)
}

func TestSlave_RemoveGroup_SwapsWithLast(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil) // serial 1
	s.AddGroup(m, nil) // serial 2
	s.AddGroup(m, nil) // serial 3

	require.NoError(t, s.RemoveGroup(0))

	assert.Equal(t, 2, s.GroupCount())
	g, err := s.Group(0)
	require.NoError(t, err)
	assert.Equal(t, 3, g.(*stubGroup).serial, "last group moves into the vacated slot")
	g, err = s.Group(1)
	require.NoError(t, err)
	assert.Equal(t, 2, g.(*stubGroup).serial, "middle group is undisturbed")
}

func TestSlave_RemoveGroup_Last(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil)
	s.AddGroup(m, nil)

	require.NoError(t, s.RemoveGroup(1))

	assert.Equal(t, 1, s.GroupCount())
	g, err := s.Group(0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.(*stubGroup).serial)
}

func TestSlave_RemoveGroup_BadID(t *testing.T) {
	s := NewSlave[int]()
	assert.ErrorIs(t, s.RemoveGroup(0), ErrBadGroupID)
}

func TestSlave_AddRemoveValue(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil)

	require.NoError(t, s.AddValue(0, 42, nil))
	g, err := s.Group(0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Size())

	require.NoError(t, s.RemoveValue(0, 42, nil))
	assert.Equal(t, 0, g.Size())

	assert.ErrorIs(t, s.AddValue(3, 42, nil), ErrBadGroupID)
	assert.ErrorIs(t, s.RemoveValue(3, 42, nil), ErrBadGroupID)
}

func TestSlave_ScoreValue_Accumulates(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil) // serial 1
	s.AddGroup(m, nil) // serial 2

	// Pre-filled buffer: the likelihood term must add, not overwrite,
	// composing with a prior term already present.
	scores := []float64{1000, 2000}
	require.NoError(t, s.ScoreValue(7, scores, nil))

	assert.Equal(t, []float64{1000 + 107, 2000 + 207}, scores)
}

func TestSlave_ScoreValue_BufferSize(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil)

	err := s.ScoreValue(7, make([]float64, 2), nil)
	assert.ErrorIs(t, err, ErrScoreBufferSize)
}

func TestSlave_ScoreMixture(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil) // serial 1
	s.AddGroup(m, nil) // serial 2

	assert.Equal(t, 3.0, s.ScoreMixture(m, nil))
}

func TestSlave_Init(t *testing.T) {
	m := &stubModel{}
	s := NewSlave[int]()
	s.AddGroup(m, nil)

	s.Init(nil)
	assert.Equal(t, 0, s.GroupCount())

	s.Init([]model.Group[int]{&stubGroup{serial: 9}})
	assert.Equal(t, 1, s.GroupCount())
}
