package mixture

import (
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/mixgo/model"
)

// Slave owns one opaque per-group accumulator per packed slot, kept in exact
// 1:1 positional correspondence with the Driver's counts. It materializes and
// destroys group objects exactly when the Driver signals a transition, and
// forwards per-observation updates and scoring to the model capability.
type Slave[V any] struct {
	groups []model.Group[V]
}

// NewSlave creates an empty Slave.
func NewSlave[V any]() *Slave[V] {
	return &Slave[V]{}
}

// Init installs an externally supplied group sequence (e.g. restored from a
// snapshot). Pass nil to reset.
func (s *Slave[V]) Init(groups []model.Group[V]) {
	s.groups = append(s.groups[:0], groups...)
}

// AddGroup appends one newly initialized group at the tail. It must be called
// exactly once per Driver-reported "created" transition, in the same logical
// step, so the store stays index-aligned with the Driver's counts.
func (s *Slave[V]) AddGroup(m model.Model[V], rng *rand.Rand) {
	s.groups = append(s.groups, m.Init(rng))
}

// RemoveGroup evicts the group at the given packed id using the identical
// swap-with-last compaction the Driver uses for counts. It must be called
// exactly once per Driver-reported "removed" transition.
func (s *Slave[V]) RemoveGroup(groupID model.PackedID) error {
	if int(groupID) >= len(s.groups) {
		return fmt.Errorf("%w: %d (have %d groups)", ErrBadGroupID, groupID, len(s.groups))
	}

	last := len(s.groups) - 1
	s.groups[groupID] = s.groups[last]
	s.groups[last] = nil
	s.groups = s.groups[:last]

	return nil
}

// AddValue forwards one observation to the addressed group's accumulator.
func (s *Slave[V]) AddValue(groupID model.PackedID, value V, rng *rand.Rand) error {
	g, err := s.Group(groupID)
	if err != nil {
		return err
	}
	return g.AddValue(value, rng)
}

// RemoveValue removes one observation from the addressed group's accumulator.
func (s *Slave[V]) RemoveValue(groupID model.PackedID, value V, rng *rand.Rand) error {
	g, err := s.Group(groupID)
	if err != nil {
		return err
	}
	return g.RemoveValue(value, rng)
}

// ScoreValue adds, for every live group, the log-score of assigning value to
// that group into scoresAccum. Values are added to, not overwritten, so the
// likelihood term composes with the Driver's prior term. The buffer must be
// sized to the current group count.
//
// This is the slow uncached path; families with cached per-group scores may
// bypass it.
func (s *Slave[V]) ScoreValue(value V, scoresAccum []float64, rng *rand.Rand) error {
	if len(scoresAccum) != len(s.groups) {
		return fmt.Errorf("%w: buffer %d, groups %d", ErrScoreBufferSize, len(scoresAccum), len(s.groups))
	}

	for i, g := range s.groups {
		scoresAccum[i] += g.Score(value, rng)
	}

	return nil
}

// ScoreMixture returns the sum of each group's marginal-likelihood
// contribution. Slow reference path.
func (s *Slave[V]) ScoreMixture(m model.Model[V], rng *rand.Rand) float64 {
	var score float64
	for _, g := range s.groups {
		score += m.ScoreGroup(g, rng)
	}
	return score
}

// Groups returns a read-only view of the packed group sequence.
// The slice is invalidated by the next structural operation.
func (s *Slave[V]) Groups() []model.Group[V] { return s.groups }

// Group returns the group at the given packed id.
func (s *Slave[V]) Group(groupID model.PackedID) (model.Group[V], error) {
	if int(groupID) >= len(s.groups) {
		return nil, fmt.Errorf("%w: %d (have %d groups)", ErrBadGroupID, groupID, len(s.groups))
	}
	return s.groups[groupID], nil
}

// GroupCount returns the number of live groups.
func (s *Slave[V]) GroupCount() int { return len(s.groups) }
