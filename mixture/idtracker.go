package mixture

import (
	"fmt"

	"github.com/hupe1980/mixgo/model"
)

// tombstone marks the reverse mapping of a removed global id. Global ids are
// retired, never recycled, so the marker is permanent.
const tombstone = model.MaxPackedID

// IDTracker maintains a bidirectional mapping between dense packed group ids,
// which move on compaction, and permanent global ids, which never move.
// Callers outside the core hold global ids; packed ids are only valid within
// a single step.
//
// Stale lookups are checked unconditionally: GlobalToPacked for a removed
// global id returns ErrStaleGlobalID, never silent garbage.
type IDTracker struct {
	packedToGlobal []model.GlobalID
	globalToPacked []model.PackedID
}

// NewIDTracker creates an empty IDTracker.
func NewIDTracker() *IDTracker {
	return &IDTracker{}
}

// Init establishes an identity mapping of groupCount groups: packed id ==
// global id for each. Previously allocated ids are discarded.
func (t *IDTracker) Init(groupCount int) {
	t.packedToGlobal = t.packedToGlobal[:0]
	t.globalToPacked = t.globalToPacked[:0]
	for range groupCount {
		t.AddGroup()
	}
}

// AddGroup allocates the next unused global id, appends it at the new tail
// packed position, and returns it. Allocation is monotonic.
func (t *IDTracker) AddGroup() model.GlobalID {
	packed := model.PackedID(len(t.packedToGlobal))
	global := model.GlobalID(len(t.globalToPacked))
	t.packedToGlobal = append(t.packedToGlobal, global)
	t.globalToPacked = append(t.globalToPacked, packed)
	return global
}

// RemoveGroup retires the global id at the given packed position. If packed
// is not the last slot, the last slot's global id moves into its place and
// both direction maps are updated. The removed global id permanently resolves
// to ErrStaleGlobalID afterwards.
func (t *IDTracker) RemoveGroup(packed model.PackedID) error {
	if int(packed) >= len(t.packedToGlobal) {
		return fmt.Errorf("%w: %d (packed size %d)", ErrBadPackedID, packed, len(t.packedToGlobal))
	}

	retired := t.packedToGlobal[packed]
	t.globalToPacked[retired] = tombstone

	last := len(t.packedToGlobal) - 1
	if int(packed) != last {
		moved := t.packedToGlobal[last]
		t.packedToGlobal[packed] = moved
		t.globalToPacked[moved] = packed
	}
	t.packedToGlobal = t.packedToGlobal[:last]

	return nil
}

// PackedToGlobal resolves a packed id to its permanent global id.
func (t *IDTracker) PackedToGlobal(packed model.PackedID) (model.GlobalID, error) {
	if int(packed) >= len(t.packedToGlobal) {
		return 0, fmt.Errorf("%w: %d (packed size %d)", ErrBadPackedID, packed, len(t.packedToGlobal))
	}
	return t.packedToGlobal[packed], nil
}

// GlobalToPacked resolves a global id to its current packed position.
// A removed global id yields ErrStaleGlobalID; an id that was never allocated
// yields ErrBadGlobalID.
func (t *IDTracker) GlobalToPacked(global model.GlobalID) (model.PackedID, error) {
	if int(global) >= len(t.globalToPacked) {
		return 0, fmt.Errorf("%w: %d (global size %d)", ErrBadGlobalID, global, len(t.globalToPacked))
	}
	packed := t.globalToPacked[global]
	if packed == tombstone {
		return 0, fmt.Errorf("%w: %d", ErrStaleGlobalID, global)
	}
	if int(packed) >= len(t.packedToGlobal) {
		return 0, fmt.Errorf("%w: global %d maps to packed %d (packed size %d)",
			ErrStateCorrupt, global, packed, len(t.packedToGlobal))
	}
	return packed, nil
}

// Contains reports whether the global id refers to a live group.
func (t *IDTracker) Contains(global model.GlobalID) bool {
	return int(global) < len(t.globalToPacked) && t.globalToPacked[global] != tombstone
}

// PackedSize returns the number of live groups.
func (t *IDTracker) PackedSize() int { return len(t.packedToGlobal) }

// GlobalSize returns the number of global ids ever allocated, live or retired.
func (t *IDTracker) GlobalSize() int { return len(t.globalToPacked) }

// Dump returns copies of both direction maps for persistence.
func (t *IDTracker) Dump() (packedToGlobal []model.GlobalID, globalToPacked []model.PackedID) {
	packedToGlobal = append([]model.GlobalID(nil), t.packedToGlobal...)
	globalToPacked = append([]model.PackedID(nil), t.globalToPacked...)
	return packedToGlobal, globalToPacked
}

// Restore installs persisted direction maps, verifying that every live entry
// round-trips in both directions and every tombstone is genuine.
func (t *IDTracker) Restore(packedToGlobal []model.GlobalID, globalToPacked []model.PackedID) error {
	if len(packedToGlobal) > len(globalToPacked) {
		return fmt.Errorf("%w: packed size %d exceeds global size %d",
			ErrStateMismatch, len(packedToGlobal), len(globalToPacked))
	}

	seen := make(map[model.GlobalID]struct{}, len(packedToGlobal))
	for p, g := range packedToGlobal {
		if int(g) >= len(globalToPacked) {
			return fmt.Errorf("%w: packed %d maps to unknown global %d", ErrStateMismatch, p, g)
		}
		if globalToPacked[g] != model.PackedID(p) {
			return fmt.Errorf("%w: global %d does not round-trip to packed %d", ErrStateMismatch, g, p)
		}
		seen[g] = struct{}{}
	}
	for g, p := range globalToPacked {
		if p == tombstone {
			continue
		}
		if _, ok := seen[model.GlobalID(g)]; !ok {
			return fmt.Errorf("%w: global %d maps to packed %d but is not live", ErrStateMismatch, g, p)
		}
	}

	t.packedToGlobal = append(t.packedToGlobal[:0], packedToGlobal...)
	t.globalToPacked = append(t.globalToPacked[:0], globalToPacked...)
	return nil
}
