package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_RoundTrip(t *testing.T) {
	type record struct {
		Counts []int     `json:"counts"`
		Alphas []float64 `json:"alphas"`
	}
	in := record{Counts: []int{3, 0, 7}, Alphas: []float64{0.5, 1.25}}

	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "json", Default.Name())
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, map[string]int{"a": 1})
	assert.JSONEq(t, `{"a":1}`, string(data))

	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}
