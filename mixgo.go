package mixgo

import (
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/mixgo/mixture"
	"github.com/hupe1980/mixgo/model"
)

// Mixture owns the three bookkeeping components of one mixture — occupancy
// counts (mixture.Driver), per-group accumulators (mixture.Slave), and the
// packed-to-global identity map (mixture.IDTracker) — and advances them in
// strict lockstep. Only combined operations are exposed, so the components
// cannot desynchronize.
//
// All operations are synchronous and in-memory. A Mixture is not safe for
// concurrent mutation; a single logical owner (typically one inference worker
// performing one Gibbs step at a time) must serialize access. Scoring alone
// mutates nothing (see ScoreValueBatch).
type Mixture[V any] struct {
	model  model.Model[V]
	driver *mixture.Driver
	slave  *mixture.Slave[V]
	ids    *mixture.IDTracker
	logger *Logger
}

// New creates a Mixture for the given model family. Call Init or Restore
// before adding observations.
func New[V any](m model.Model[V], optFns ...Option) *Mixture[V] {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	return &Mixture[V]{
		model:  m,
		driver: mixture.NewDriver(),
		slave:  mixture.NewSlave[V](),
		ids:    mixture.NewIDTracker(),
		logger: opts.Logger,
	}
}

// Init starts a fresh mixture with the single mandatory empty group
// (packed id 0 == global id 0).
func (mx *Mixture[V]) Init(rng *rand.Rand) error {
	if err := mx.driver.Init([]int{0}); err != nil {
		return err
	}
	mx.slave.Init(nil)
	mx.slave.AddGroup(mx.model, rng)
	mx.ids.Init(1)
	return nil
}

// Restore installs externally supplied counts and matching group
// accumulators, resetting identities to packed id == global id. The counts
// must contain at least one zero (the spare empty group) and the group at
// each position must hold exactly counts[i] observations.
func (mx *Mixture[V]) Restore(counts []int, groups []model.Group[V]) error {
	if len(counts) != len(groups) {
		return fmt.Errorf("%w: %d counts, %d groups", mixture.ErrStateMismatch, len(counts), len(groups))
	}
	if err := mx.driver.Init(counts); err != nil {
		return err
	}
	mx.slave.Init(groups)
	mx.ids.Init(len(counts))
	return nil
}

// RestoreState is Restore with explicit identity maps, used when reloading a
// snapshot so previously handed-out global ids stay valid.
func (mx *Mixture[V]) RestoreState(
	counts []int,
	groups []model.Group[V],
	packedToGlobal []model.GlobalID,
	globalToPacked []model.PackedID,
) error {
	if len(counts) != len(groups) || len(counts) != len(packedToGlobal) {
		return fmt.Errorf("%w: %d counts, %d groups, %d packed ids",
			mixture.ErrStateMismatch, len(counts), len(groups), len(packedToGlobal))
	}
	if err := mx.ids.Restore(packedToGlobal, globalToPacked); err != nil {
		return err
	}
	if err := mx.driver.Init(counts); err != nil {
		return err
	}
	mx.slave.Init(groups)
	return nil
}

// AddValue assigns one observation to the group at the given packed id,
// updating counts, the group's statistics, and — when the group was
// previously empty — materializing a fresh spare group with a new global id,
// all in one step. It returns whether a group was created.
//
// Any returned error is a contract violation; the mixture must be considered
// corrupt afterwards.
func (mx *Mixture[V]) AddValue(groupID model.PackedID, value V, rng *rand.Rand) (bool, error) {
	// Family-level validation first, so a rejected value mutates nothing.
	if err := mx.slave.AddValue(groupID, value, rng); err != nil {
		return false, err
	}
	created, err := mx.driver.AddValue(groupID, 1)
	if err != nil {
		return false, err
	}
	if created {
		mx.slave.AddGroup(mx.model, rng)
		global := mx.ids.AddGroup()
		mx.logger.Debug("group created",
			"packed", uint32(groupID), "global", uint32(global), "groups", mx.driver.GroupCount())
	}
	return created, nil
}

// RemoveValue removes one observation from the group at the given packed id.
// If the group's occupancy drops to zero, the group is destroyed and the
// layout compacted (swap-with-last) across all three components in one step.
// It returns whether a group was removed.
func (mx *Mixture[V]) RemoveValue(groupID model.PackedID, value V, rng *rand.Rand) (bool, error) {
	if err := mx.slave.RemoveValue(groupID, value, rng); err != nil {
		return false, err
	}
	removed, err := mx.driver.RemoveValue(groupID, 1)
	if err != nil {
		return false, err
	}
	if removed {
		global, err := mx.ids.PackedToGlobal(groupID)
		if err != nil {
			return false, err
		}
		if err := mx.slave.RemoveGroup(groupID); err != nil {
			return false, err
		}
		if err := mx.ids.RemoveGroup(groupID); err != nil {
			return false, err
		}
		mx.logger.Debug("group removed",
			"packed", uint32(groupID), "global", uint32(global), "groups", mx.driver.GroupCount())
	}
	return removed, nil
}

// ScoreValue writes, for every packed group id, the unnormalized log-score of
// assigning value to that group: the partition prior term plus the group's
// likelihood term. The buffer must be sized to the current group count; it is
// zeroed first, so repeated calls with unchanged state yield identical
// results.
func (mx *Mixture[V]) ScoreValue(value V, scores []float64, rng *rand.Rand) error {
	for i := range scores {
		scores[i] = 0
	}
	if err := mx.driver.ScoreValue(mx.model, scores); err != nil {
		return err
	}
	return mx.slave.ScoreValue(value, scores, rng)
}

// ScoreValueBatch scores many candidate values concurrently and returns one
// score vector per value. Scoring mutates nothing, so the fan-out is safe
// provided no mutation runs concurrently. Each worker derives its own rng
// stream from seed, keeping results deterministic regardless of scheduling.
func (mx *Mixture[V]) ScoreValueBatch(values []V, seed uint64) ([][]float64, error) {
	out := make([][]float64, len(values))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range values {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			scores := make([]float64, mx.GroupCount())
			if err := mx.ScoreValue(v, scores, rng); err != nil {
				return err
			}
			out[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// ScoreMixture returns the total log-probability of the current clustering:
// the partition prior over counts plus every group's marginal likelihood.
// Used to compare alternative clusterings. Slow reference path.
func (mx *Mixture[V]) ScoreMixture(rng *rand.Rand) float64 {
	return mx.driver.ScoreMixture(mx.model) + mx.slave.ScoreMixture(mx.model, rng)
}

// PackedToGlobal resolves a packed id to its permanent global id.
func (mx *Mixture[V]) PackedToGlobal(packed model.PackedID) (model.GlobalID, error) {
	return mx.ids.PackedToGlobal(packed)
}

// GlobalToPacked resolves a global id to its current packed position.
// A removed global id yields mixture.ErrStaleGlobalID.
func (mx *Mixture[V]) GlobalToPacked(global model.GlobalID) (model.PackedID, error) {
	return mx.ids.GlobalToPacked(global)
}

// Counts returns a read-only view of the per-group occupancy counts.
func (mx *Mixture[V]) Counts() []int { return mx.driver.Counts() }

// EmptyGroupIDs returns the packed ids of all empty groups in ascending order.
func (mx *Mixture[V]) EmptyGroupIDs() []model.PackedID { return mx.driver.EmptyGroupIDs() }

// SampleSize returns the total number of observations in the mixture.
func (mx *Mixture[V]) SampleSize() int { return mx.driver.SampleSize() }

// GroupCount returns the current number of groups, including empty ones.
func (mx *Mixture[V]) GroupCount() int { return mx.driver.GroupCount() }

// Group returns the accumulator at the given packed id.
func (mx *Mixture[V]) Group(groupID model.PackedID) (model.Group[V], error) {
	return mx.slave.Group(groupID)
}

// Groups returns a read-only view of the packed group sequence.
func (mx *Mixture[V]) Groups() []model.Group[V] { return mx.slave.Groups() }

// Model returns the model family the mixture was built with.
func (mx *Mixture[V]) Model() model.Model[V] { return mx.model }

// IDMap returns copies of the identity maps for persistence.
func (mx *Mixture[V]) IDMap() (packedToGlobal []model.GlobalID, globalToPacked []model.PackedID) {
	return mx.ids.Dump()
}

// Validate runs the full structural invariant check across all three
// components: driver invariants plus index alignment. Intended for tests and
// debugging.
func (mx *Mixture[V]) Validate() error {
	if err := mx.driver.CheckInvariants(); err != nil {
		return err
	}
	if mx.slave.GroupCount() != mx.driver.GroupCount() || mx.ids.PackedSize() != mx.driver.GroupCount() {
		return fmt.Errorf("%w: driver %d, slave %d, ids %d", mixture.ErrStateMismatch,
			mx.driver.GroupCount(), mx.slave.GroupCount(), mx.ids.PackedSize())
	}
	for i, g := range mx.slave.Groups() {
		if g.Size() != mx.driver.Counts()[i] {
			return fmt.Errorf("%w: group %d holds %d observations, driver counts %d",
				mixture.ErrStateMismatch, i, g.Size(), mx.driver.Counts()[i])
		}
	}
	return nil
}
