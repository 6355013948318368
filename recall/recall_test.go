package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/prepare"
)

func fixture(t *testing.T) *model.Snapshot {
	t.Helper()
	ds := prepare.FromTables(
		[]core.EnrichedItem{
			{PostID: 1, Summary: "golang tutorial", Category: "Tech"},
			{PostID: 2, Summary: "golang generics tutorial", Category: "Tech"},
			{PostID: 3, Summary: "bread baking", Category: "Food"},
		},
		map[core.InteractionKind][]core.Interaction{
			core.KindLike: {{UserID: 1, ItemID: 1}, {UserID: 2, ItemID: 1}, {UserID: 2, ItemID: 3}},
			core.KindView: {{UserID: 3, ItemID: 3}},
		},
	)
	snap, err := model.BuildSnapshot(context.Background(), ds, model.SnapshotOptions{Weights: model.DefaultWeightPolicy()})
	require.NoError(t, err)
	return snap
}

func TestCatalog(t *testing.T) {
	snap := fixture(t)
	items, err := (&Catalog{Dataset: snap.Dataset}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, core.ItemIDs(items))
	assert.Equal(t, "Food", items[2].Category())
}

func TestUserBasedCF(t *testing.T) {
	snap := fixture(t)
	r := &UserBasedCF{Users: snap.Users, Interactions: snap.Interactions}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: 1})
	require.NoError(t, err)

	// 用户 1 只与用户 2 相似（共同喜欢 1），用户 3 相似度为 0
	sim := snap.Users.Similarity(1, 2)
	require.Greater(t, sim, 0.0)
	assert.Equal(t, []int64{1, 3}, core.ItemIDs(items))
	assert.InDelta(t, sim*1.0, items[1].Features[model.FeatureCollaborative], 1e-12)

	items, err = r.Recall(context.Background(), &core.RecommendContext{UserID: 404})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentRecall(t *testing.T) {
	snap := fixture(t)
	rctx := &core.RecommendContext{UserID: 1, User: snap.UserProfile(1)}
	items, err := (&ContentRecall{Content: snap.Content}).Recall(context.Background(), rctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, core.ItemIDs(items))
	assert.Equal(t, 1.0, items[0].Features[model.FeatureContent])
	assert.Equal(t, snap.Content.Similarity(1, 2), items[1].Features[model.FeatureContent])

	items, err = (&ContentRecall{Content: snap.Content}).Recall(context.Background(), &core.RecommendContext{UserID: 9})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type staticSource struct {
	name  string
	items func() []*core.Item
	err   error
}

func (s *staticSource) Name() string { return s.name }
func (s *staticSource) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items(), nil
}

func withFeature(id int64, k string, v float64) *core.Item {
	it := core.NewItem(id)
	it.Features[k] = v
	return it
}

func TestFanoutMergesFeatures(t *testing.T) {
	a := &staticSource{name: "a", items: func() []*core.Item {
		return []*core.Item{withFeature(2, "x", 1), withFeature(1, "x", 2)}
	}}
	b := &staticSource{name: "b", items: func() []*core.Item {
		return []*core.Item{withFeature(2, "y", 3)}
	}}
	broken := &staticSource{name: "broken", err: errors.New("boom")}

	f := &Fanout{Sources: []Source{a, b, broken}, Dedup: true, MaxConcurrent: 1}
	items, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, core.ItemIDs(items))
	assert.Equal(t, map[string]float64{"x": 1, "y": 3}, items[1].Features)
	assert.Equal(t, "a|b", items[1].Labels[LabelRecallSource].Value)

	f.Strict = true
	_, err = f.Process(context.Background(), &core.RecommendContext{}, nil)
	assert.Error(t, err)
}

func TestFanoutUnionKeepsDuplicates(t *testing.T) {
	a := &staticSource{name: "a", items: func() []*core.Item { return []*core.Item{core.NewItem(1)} }}
	f := &Fanout{Sources: []Source{a, a}, Dedup: true, MergeStrategy: MergeUnion}
	items, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
