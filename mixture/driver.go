package mixture

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/mixgo/model"
)

// Driver owns the per-group occupancy counts of a mixture and the set of
// empty groups. It keeps group ids contiguous for vectorized scoring while
// guaranteeing that at least one empty group is always available, so a
// sampler can always choose to start a new cluster.
//
// The Driver decides when a group must be created or destroyed as counts
// cross zero; the matching Slave and IDTracker operations must be performed
// in the same logical step (the mixgo.Mixture facade does this).
type Driver struct {
	counts        []int
	emptyGroupIDs *roaring.Bitmap
	sampleSize    int
}

// NewDriver creates an empty Driver. Call Init before use.
func NewDriver() *Driver {
	return &Driver{
		emptyGroupIDs: roaring.New(),
	}
}

// Init installs an externally supplied count sequence (e.g. restored from a
// snapshot), rebuilds the empty-group set by scanning for zero entries, and
// recomputes the sample size. The counts must contain at least one zero.
func (d *Driver) Init(counts []int) error {
	d.counts = append(d.counts[:0], counts...)
	d.emptyGroupIDs.Clear()
	d.sampleSize = 0

	for i, c := range d.counts {
		if c < 0 {
			return fmt.Errorf("%w: counts[%d] = %d", ErrNegativeCount, i, c)
		}
		d.sampleSize += c
		if c == 0 {
			d.emptyGroupIDs.Add(uint32(i))
		}
	}

	return d.validate()
}

// AddValue adds count observations to the given group. If the group was
// previously empty, a fresh empty group is appended at the tail and AddValue
// returns true: the caller's cue to materialize the corresponding group
// object and allocate a global id.
func (d *Driver) AddValue(groupID model.PackedID, count int) (bool, error) {
	if count <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrZeroCount, count)
	}
	if int(groupID) >= len(d.counts) {
		return false, fmt.Errorf("%w: %d (have %d groups)", ErrBadGroupID, groupID, len(d.counts))
	}

	created := d.counts[groupID] == 0
	d.counts[groupID] += count
	d.sampleSize += count

	if created {
		d.emptyGroupIDs.Remove(uint32(groupID))
		d.emptyGroupIDs.Add(uint32(len(d.counts)))
		d.counts = append(d.counts, 0)
		if err := d.validate(); err != nil {
			return false, err
		}
	}

	return created, nil
}

// RemoveValue removes count observations from the given group. If the group's
// occupancy drops to zero it is swap-compacted with the last slot and the
// sequence shrinks by one; RemoveValue then returns true, the caller's cue to
// destroy the corresponding group object at the (now reused) position.
func (d *Driver) RemoveValue(groupID model.PackedID, count int) (bool, error) {
	if count <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrZeroCount, count)
	}
	if int(groupID) >= len(d.counts) {
		return false, fmt.Errorf("%w: %d (have %d groups)", ErrBadGroupID, groupID, len(d.counts))
	}
	if d.counts[groupID] == 0 {
		return false, fmt.Errorf("%w: group %d", ErrEmptyGroupRemove, groupID)
	}
	if count > d.counts[groupID] {
		return false, fmt.Errorf("%w: group %d holds %d, removing %d",
			ErrRemoveTooMany, groupID, d.counts[groupID], count)
	}

	d.counts[groupID] -= count
	d.sampleSize -= count
	removed := d.counts[groupID] == 0

	if removed {
		last := len(d.counts) - 1
		if int(groupID) != last {
			d.counts[groupID] = d.counts[last]
			if d.counts[last] == 0 {
				// The migrated slot was itself empty; its membership
				// moves with it. The just-zeroed slot was occupied a
				// moment ago and is not in the set.
				d.emptyGroupIDs.Remove(uint32(last))
				d.emptyGroupIDs.Add(uint32(groupID))
			}
		}
		d.counts = d.counts[:last]
		if err := d.validate(); err != nil {
			return false, err
		}
	}

	return removed, nil
}

// ScoreValue writes, for every current packed group id, the unnormalized
// prior score of assigning a new observation to that group. The buffer must
// be sized to the current group count. Scores are overwritten, not summed;
// the Slave's likelihood term is accumulated on top by the facade.
//
// This is the slow uncached path; model-specific mixtures may keep cached
// scores instead and skip it.
func (d *Driver) ScoreValue(m model.PartitionScorer, scores []float64) error {
	if len(scores) != len(d.counts) {
		return fmt.Errorf("%w: buffer %d, groups %d", ErrScoreBufferSize, len(scores), len(d.counts))
	}

	emptyGroupCount := int(d.emptyGroupIDs.GetCardinality())
	nonemptyGroupCount := len(d.counts) - emptyGroupCount
	for i, c := range d.counts {
		scores[i] = m.ScoreAddValue(c, nonemptyGroupCount, d.sampleSize, emptyGroupCount)
	}

	return nil
}

// ScoreMixture returns the total log-probability of the current partition of
// counts under the prior over group-size structures.
func (d *Driver) ScoreMixture(m model.PartitionScorer) float64 {
	return m.ScoreCounts(d.counts)
}

// Counts returns a read-only view of the per-group occupancy counts.
// The slice is invalidated by the next structural operation.
func (d *Driver) Counts() []int { return d.counts }

// Count returns the occupancy of one group.
func (d *Driver) Count(groupID model.PackedID) (int, error) {
	if int(groupID) >= len(d.counts) {
		return 0, fmt.Errorf("%w: %d (have %d groups)", ErrBadGroupID, groupID, len(d.counts))
	}
	return d.counts[groupID], nil
}

// GroupCount returns the current number of groups, including empty ones.
func (d *Driver) GroupCount() int { return len(d.counts) }

// SampleSize returns the total number of observations across all groups.
func (d *Driver) SampleSize() int { return d.sampleSize }

// EmptyGroupIDs returns the packed ids of all empty groups in ascending order.
func (d *Driver) EmptyGroupIDs() []model.PackedID {
	ids := make([]model.PackedID, 0, d.emptyGroupIDs.GetCardinality())
	d.emptyGroupIDs.Iterate(func(x uint32) bool {
		ids = append(ids, model.PackedID(x))
		return true
	})
	return ids
}

// validate is the cheap always-on invariant: a spare empty group must exist.
func (d *Driver) validate() error {
	if d.emptyGroupIDs.IsEmpty() {
		return ErrNoEmptyGroup
	}
	return nil
}

// CheckInvariants performs the full structural check: the empty-group set is
// exactly the zero positions, the sample size equals the sum of counts, and
// at least one empty group exists. Intended for tests and debugging; the
// incremental operations maintain these invariants without rescanning.
func (d *Driver) CheckInvariants() error {
	if err := d.validate(); err != nil {
		return err
	}

	sum := 0
	for i, c := range d.counts {
		if c < 0 {
			return fmt.Errorf("%w: counts[%d] = %d", ErrStateCorrupt, i, c)
		}
		sum += c
		if isZero, isMember := c == 0, d.emptyGroupIDs.Contains(uint32(i)); isZero != isMember {
			return fmt.Errorf("%w: group %d zero=%t member=%t", ErrStateCorrupt, i, isZero, isMember)
		}
	}
	if sum != d.sampleSize {
		return fmt.Errorf("%w: sample size %d, sum of counts %d", ErrStateCorrupt, d.sampleSize, sum)
	}
	if int(d.emptyGroupIDs.Maximum()) >= len(d.counts) {
		return fmt.Errorf("%w: empty set contains out-of-range id %d", ErrStateCorrupt, d.emptyGroupIDs.Maximum())
	}

	return nil
}
