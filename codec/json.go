package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Family records (concentration vectors, per-outcome counts) are flat structs
// of numbers, which JSON round-trips exactly for the integer ranges used
// here. Implement Codec to substitute msgpack/protobuf where needed.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// Persisted snapshots are self-describing (they store the codec name in
// their header), so changing the default does not break existing files.
var Default Codec = JSON{}
