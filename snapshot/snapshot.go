// Package snapshot persists and restores whole mixtures.
//
// A snapshot is self-describing: its header records the codec and compression
// by name, so files written with one configuration load under another.
// Per-group statistics are encoded through the family's model.GroupCodec;
// the core's counts and both identity maps travel alongside, so global ids
// handed out before the snapshot remain valid after a reload.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/mixgo"
	"github.com/hupe1980/mixgo/blobstore"
	"github.com/hupe1980/mixgo/codec"
	"github.com/hupe1980/mixgo/model"
)

const (
	magic   = "MXGOSNAP"
	version = byte(1)
)

var (
	// ErrBadMagic is returned when the stream is not a mixgo snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnsupportedVersion is returned for a snapshot written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrUnknownCodec is returned when the header names a codec this build
	// does not provide.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
	// ErrUnknownCompression is returned when the header names an unknown
	// compression scheme.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
	// ErrCorrupt is returned when the payload decodes but fails its
	// structural checks.
	ErrCorrupt = errors.New("snapshot: corrupt payload")
)

// Compression identifies the payload compression scheme by stable name.
type Compression string

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = "none"
	// CompressionZstd compresses the payload with zstandard.
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 compresses the payload with lz4.
	CompressionLZ4 Compression = "lz4"
)

// Options configures snapshot writing. Reading needs no options; the header
// describes the file.
type Options struct {
	// Codec encodes the snapshot payload. Defaults to codec.Default.
	Codec codec.Codec
	// Compression selects the payload compression. Defaults to zstd.
	Compression Compression
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) func(*Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the payload compression.
func WithCompression(comp Compression) func(*Options) {
	return func(o *Options) {
		o.Compression = comp
	}
}

// payload is the codec-encoded body of a snapshot.
type payload struct {
	Counts         []int            `json:"counts"`
	PackedToGlobal []model.GlobalID `json:"packed_to_global"`
	GlobalToPacked []model.PackedID `json:"global_to_packed"`
	Groups         [][]byte         `json:"groups"`
}

// Save writes a snapshot of the mixture to w.
func Save[V any](w io.Writer, mx *mixgo.Mixture[V], gc model.GroupCodec[V], optFns ...func(*Options)) error {
	opts := Options{Codec: codec.Default, Compression: CompressionZstd}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	groups := mx.Groups()
	pl := payload{
		Counts: append([]int(nil), mx.Counts()...),
		Groups: make([][]byte, 0, len(groups)),
	}
	pl.PackedToGlobal, pl.GlobalToPacked = mx.IDMap()
	for _, g := range groups {
		rec, err := gc.EncodeGroup(g)
		if err != nil {
			return fmt.Errorf("snapshot: encoding group: %w", err)
		}
		pl.Groups = append(pl.Groups, rec)
	}

	body, err := opts.Codec.Marshal(pl)
	if err != nil {
		return fmt.Errorf("snapshot: encoding payload: %w", err)
	}

	hdr := make([]byte, 0, len(magic)+1+16)
	hdr = append(hdr, magic...)
	hdr = append(hdr, version)
	hdr = appendString(hdr, opts.Codec.Name())
	hdr = appendString(hdr, string(opts.Compression))
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	switch opts.Compression {
	case CompressionNone:
		_, err = w.Write(body)
		return err
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := enc.Write(body); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if _, err := lw.Write(body); err != nil {
			lw.Close()
			return err
		}
		return lw.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCompression, opts.Compression)
	}
}

// Load reads a snapshot from r and reconstructs the mixture for the given
// model family. Global ids allocated before the snapshot remain valid.
func Load[V any](r io.Reader, mdl model.Model[V], gc model.GroupCodec[V], optFns ...mixgo.Option) (*mixgo.Mixture[V], error) {
	br := bufio.NewReader(r)

	got := make([]byte, len(magic))
	if _, err := io.ReadFull(br, got); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if string(got) != magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, got)
	}
	ver, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if ver != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, ver)
	}

	codecName, err := readString(br)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	compName, err := readString(br)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch Compression(compName) {
	case CompressionNone:
		body, err = io.ReadAll(br)
	case CompressionZstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(br)
		if err == nil {
			body, err = io.ReadAll(dec)
			dec.Close()
		}
	case CompressionLZ4:
		body, err = io.ReadAll(lz4.NewReader(br))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compName)
	}
	if err != nil {
		return nil, err
	}

	var pl payload
	if err := c.Unmarshal(body, &pl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(pl.Groups) != len(pl.Counts) {
		return nil, fmt.Errorf("%w: %d counts, %d groups", ErrCorrupt, len(pl.Counts), len(pl.Groups))
	}

	groups := make([]model.Group[V], 0, len(pl.Groups))
	for i, rec := range pl.Groups {
		g, err := gc.DecodeGroup(rec)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decoding group %d: %w", i, err)
		}
		groups = append(groups, g)
	}

	mx := mixgo.New(mdl, optFns...)
	if err := mx.RestoreState(pl.Counts, groups, pl.PackedToGlobal, pl.GlobalToPacked); err != nil {
		return nil, err
	}
	if err := mx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return mx, nil
}

// SaveToStore writes a snapshot blob under the given name.
func SaveToStore[V any](ctx context.Context, store blobstore.Store, name string, mx *mixgo.Mixture[V], gc model.GroupCodec[V], optFns ...func(*Options)) error {
	var buf bytes.Buffer
	if err := Save(&buf, mx, gc, optFns...); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// LoadFromStore reads a snapshot blob and reconstructs the mixture.
func LoadFromStore[V any](ctx context.Context, store blobstore.Store, name string, mdl model.Model[V], gc model.GroupCodec[V], optFns ...mixgo.Option) (*mixgo.Mixture[V], error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data), mdl, gc, optFns...)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(br *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(br, b); err != nil {
		return "", err
	}
	return string(b), nil
}
