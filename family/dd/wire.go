package dd

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Binary wire form. Mirrors the record fields: a uvarint dimension followed
// by one entry per outcome. Loading clears and repopulates the target;
// dumping appends one entry per dimension.

// MarshalBinary implements encoding.BinaryMarshaler for a group's statistics.
func (g *Group) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2+len(g.counts))
	buf = binary.AppendUvarint(buf, uint64(len(g.counts)))
	for _, c := range g.counts {
		buf = binary.AppendUvarint(buf, uint64(c))
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The group's counts
// are cleared and repopulated from the message; the dimension must match.
func (g *Group) UnmarshalBinary(data []byte) error {
	dim, n := binary.Uvarint(data)
	if n <= 0 {
		return fmt.Errorf("%w: invalid dimension prefix", ErrMalformedRecord)
	}
	data = data[n:]
	if int(dim) != len(g.counts) {
		return fmt.Errorf("%w: wire dim %d, model dim %d", ErrDimensionMismatch, dim, len(g.counts))
	}

	for k := range g.counts {
		g.counts[k] = 0
	}
	g.size = 0

	for k := range int(dim) {
		c, n := binary.Uvarint(data)
		if n <= 0 {
			return fmt.Errorf("%w: short buffer at outcome %d", ErrMalformedRecord, k)
		}
		data = data[n:]
		g.counts[k] = int(c)
		g.size += int(c)
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedRecord, len(data))
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler for the shared record:
// a uvarint dimension followed by one IEEE-754 entry per outcome.
func (m *Model) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2+8*len(m.alphas))
	buf = binary.AppendUvarint(buf, uint64(len(m.alphas)))
	for _, a := range m.alphas {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(a))
	}
	return buf, nil
}

// UnmarshalSharedBinary decodes a shared-parameter wire message into a
// concentration vector.
func UnmarshalSharedBinary(data []byte) ([]float64, error) {
	dim, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension prefix", ErrMalformedRecord)
	}
	data = data[n:]
	if uint64(len(data)) != 8*dim {
		return nil, fmt.Errorf("%w: want %d alpha bytes, have %d", ErrMalformedRecord, 8*dim, len(data))
	}

	alphas := make([]float64, dim)
	for k := range alphas {
		alphas[k] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*k:]))
	}
	return alphas, nil
}
