package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGetters(t *testing.T) {
	m := map[string]any{
		"name":   "u2i",
		"k":      10,
		"weight": 1,
		"ratio":  0.4,
		"jsonK":  float64(7),
		"ids":    []any{1, int64(2), 3.0, "x"},
	}

	assert.Equal(t, "u2i", ConfigGet(m, "name", ""))
	assert.Equal(t, "def", ConfigGet(m, "missing", "def"))
	assert.Equal(t, "def", ConfigGet(m, "k", "def"))
	assert.Equal(t, int64(10), ConfigGetInt64(m, "k", 0))
	assert.Equal(t, int64(7), ConfigGetInt64(m, "jsonK", 0))
	assert.Equal(t, 1.0, ConfigGetFloat64(m, "weight", 0))
	assert.Equal(t, 0.4, ConfigGetFloat64(m, "ratio", 0))
	assert.Equal(t, 9.0, ConfigGetFloat64(m, "name", 9))
	assert.Equal(t, []int64{1, 2, 3}, SliceAnyToInt64(m["ids"]))
	assert.Nil(t, SliceAnyToInt64("nope"))
}
