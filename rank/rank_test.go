package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
)

func scored(id int64, cf, content float64) *core.Item {
	it := core.NewItem(id)
	if cf != 0 {
		it.Features[model.FeatureCollaborative] = cf
	}
	if content != 0 {
		it.Features[model.FeatureContent] = content
	}
	return it
}

func TestHybridNode(t *testing.T) {
	items := []*core.Item{
		scored(3, 1, 0), // 0.6
		scored(1, 0, 2), // 0.8
		scored(2, 1, 1), // 1.0
		scored(4, 0, 0), // 0
	}
	out, err := NewHybridNode(0.6, 0.4).Process(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3, 4}, core.ItemIDs(out))
	assert.InDelta(t, 1.0, out[0].Score, 1e-12)
	assert.Equal(t, "linear_blend", out[0].Labels["rank_model"].Value)
}

func TestModelNodeWithoutModel(t *testing.T) {
	items := []*core.Item{scored(1, 1, 1)}
	out, err := (&ModelNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
}
