package dd

import (
	"errors"
	"fmt"

	"github.com/hupe1980/mixgo/codec"
	"github.com/hupe1980/mixgo/model"
)

// Recoverable format errors. Unlike the core's contract violations, these are
// ordinary runtime conditions a loader may handle (skip, report, retry with
// another codec).
var (
	// ErrMalformedRecord is returned when a record fails to decode.
	ErrMalformedRecord = errors.New("dd: malformed record")
	// ErrDimensionMismatch is returned when a record's dimension does not
	// match the model's.
	ErrDimensionMismatch = errors.New("dd: record dimension mismatch")
)

// SharedRecord is the persisted form of the shared hyperparameters.
type SharedRecord struct {
	Alphas []float64 `json:"alphas"`
}

// GroupRecord is the persisted form of one group's sufficient statistics.
// The sum of Counts equals the group's occupancy tracked by the core.
type GroupRecord struct {
	Counts []int `json:"counts"`
}

// DumpShared encodes the model's shared hyperparameters.
func (m *Model) DumpShared(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(SharedRecord{Alphas: m.Alphas()})
}

// LoadShared decodes a shared-parameter record and constructs a model around
// it with the given partition prior.
func LoadShared(c codec.Codec, data []byte, prior model.PartitionScorer) (*Model, error) {
	if c == nil {
		c = codec.Default
	}
	var rec SharedRecord
	if err := c.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return New(rec.Alphas, prior)
}

// Codec returns the group persistence capability for this model, encoding
// groups with the given record codec (codec.Default when nil).
func (m *Model) Codec(c codec.Codec) model.GroupCodec[int] {
	if c == nil {
		c = codec.Default
	}
	return groupCodec{m: m, c: c}
}

type groupCodec struct {
	m *Model
	c codec.Codec
}

func (gc groupCodec) EncodeGroup(g model.Group[int]) ([]byte, error) {
	grp, ok := g.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: not a dd group", ErrMalformedRecord)
	}
	return gc.c.Marshal(GroupRecord{Counts: grp.counts})
}

func (gc groupCodec) DecodeGroup(data []byte) (model.Group[int], error) {
	var rec GroupRecord
	if err := gc.c.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if len(rec.Counts) != gc.m.Dim() {
		return nil, fmt.Errorf("%w: record dim %d, model dim %d",
			ErrDimensionMismatch, len(rec.Counts), gc.m.Dim())
	}

	grp := &Group{m: gc.m, counts: make([]int, gc.m.Dim())}
	for k, c := range rec.Counts {
		if c < 0 {
			return nil, fmt.Errorf("%w: counts[%d] = %d", ErrMalformedRecord, k, c)
		}
		grp.counts[k] = c
		grp.size += c
	}
	return grp, nil
}
