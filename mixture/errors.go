package mixture

import "errors"

// Contract-violation errors. These indicate caller misuse or corrupted
// internal state, never a recoverable runtime condition: callers are expected
// to treat them as fatal rather than retry or repair around them.
var (
	// ErrZeroCount is returned when AddValue/RemoveValue is called with a
	// non-positive count.
	ErrZeroCount = errors.New("mixture: count must be positive")

	// ErrNegativeCount is returned when Init is given a negative count.
	ErrNegativeCount = errors.New("mixture: count must not be negative")

	// ErrBadGroupID is returned when a packed group id is out of range.
	ErrBadGroupID = errors.New("mixture: group id out of range")

	// ErrEmptyGroupRemove is returned when removing a value from a group
	// with zero occupancy.
	ErrEmptyGroupRemove = errors.New("mixture: cannot remove value from empty group")

	// ErrRemoveTooMany is returned when removing more values than the group
	// currently holds.
	ErrRemoveTooMany = errors.New("mixture: cannot remove more values than are in group")

	// ErrNoEmptyGroup is returned when an operation that must guarantee a
	// spare empty group finds none.
	ErrNoEmptyGroup = errors.New("mixture: no empty group available")

	// ErrScoreBufferSize is returned when a score buffer is not sized to the
	// current group count.
	ErrScoreBufferSize = errors.New("mixture: score buffer size does not match group count")

	// ErrBadPackedID is returned for an out-of-range packed id.
	ErrBadPackedID = errors.New("mixture: packed id out of range")

	// ErrBadGlobalID is returned for a global id that was never allocated.
	ErrBadGlobalID = errors.New("mixture: global id never allocated")

	// ErrStaleGlobalID is returned when looking up a global id whose group
	// has been removed. The id is permanently retired, not recycled.
	ErrStaleGlobalID = errors.New("mixture: global id no longer present")

	// ErrStateMismatch is returned when restored components disagree on the
	// number of groups, or an id map fails its round-trip consistency check.
	ErrStateMismatch = errors.New("mixture: components are out of sync")

	// ErrStateCorrupt is returned by invariant checks when internal state
	// no longer satisfies its structural invariants.
	ErrStateCorrupt = errors.New("mixture: internal state corrupt")
)
