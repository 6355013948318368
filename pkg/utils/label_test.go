package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{"empty existing", Label{}, Label{Value: "u2i", Source: "recall"}, Label{Value: "u2i", Source: "recall"}},
		{"empty incoming", Label{Value: "u2i", Source: "recall"}, Label{}, Label{Value: "u2i", Source: "recall"}},
		{"append", Label{Value: "u2i", Source: "recall"}, Label{Value: "content", Source: "recall"}, Label{Value: "u2i|content", Source: "recall"}},
		{"dedup", Label{Value: "u2i|content", Source: "recall"}, Label{Value: "u2i", Source: "rank"}, Label{Value: "u2i|content", Source: "recall,rank"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}
