package model

import (
	"math/rand/v2"
)

// PackedID is a dense, contiguous position of a group in the current layout.
// It is transient: removing any group may move the last group into its slot.
// Never retain a PackedID across structural operations; use GlobalID instead.
type PackedID uint32

// GlobalID is the permanent identity of a group. It is assigned once when the
// group is created, never changes, and is never reused for a different group.
type GlobalID uint32

// MaxPackedID is the maximum possible value for a PackedID.
const MaxPackedID = ^PackedID(0)

// PartitionScorer scores the partition structure of a mixture, independently
// of any observed data. It is the clustering-prior half of a model family
// (e.g. a Pitman-Yor or Chinese-restaurant-process prior).
type PartitionScorer interface {
	// ScoreAddValue returns the unnormalized log-probability that a new
	// observation joins a group of the given size, given the current number
	// of nonempty groups, the total sample size, and the number of empty
	// groups the new-group mass is split across.
	ScoreAddValue(groupSize, nonemptyGroupCount, sampleSize, emptyGroupCount int) float64

	// ScoreCounts returns the total log-probability of the partition
	// described by counts under the prior. Zero entries are ignored.
	ScoreCounts(counts []int) float64
}

// Group is an opaque per-cluster sufficient-statistics accumulator.
// Its internal shape is family-specific and invisible to the bookkeeping core.
type Group[V any] interface {
	// AddValue folds one observation into the group's statistics.
	AddValue(value V, rng *rand.Rand) error

	// RemoveValue removes one previously added observation.
	RemoveValue(value V, rng *rand.Rand) error

	// Score returns the log-score of one observation under the group's
	// current state. The value must be valid for the family; Score has no
	// error path because it sits on the vectorized scoring hot path.
	Score(value V, rng *rand.Rand) float64

	// Size returns the number of observations currently in the group.
	Size() int
}

// Model is the capability a distribution family provides to the mixture core.
// Shared hyperparameters are captured at family construction and are
// read-only for the lifetime of the mixture.
type Model[V any] interface {
	PartitionScorer

	// Init creates a fresh, empty group accumulator.
	Init(rng *rand.Rand) Group[V]

	// ScoreGroup returns the group's marginal-likelihood contribution to the
	// total mixture score.
	ScoreGroup(g Group[V], rng *rand.Rand) float64
}

// GroupCodec is the optional persistence capability of a family: it encodes a
// group's sufficient statistics to a flat record and back. Families that
// support snapshots provide one (see family/dd and family/gp).
type GroupCodec[V any] interface {
	EncodeGroup(g Group[V]) ([]byte, error)
	DecodeGroup(data []byte) (Group[V], error)
}
