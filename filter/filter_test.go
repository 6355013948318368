package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/store"
)

func item(id int64, category string) *core.Item {
	it := core.NewItem(id)
	it.Meta[core.MetaCategory] = category
	return it
}

func candidates() []*core.Item {
	return []*core.Item{item(1, "Tech"), item(2, "tech"), item(3, "Finance"), item(4, "Tech"), nil}
}

func TestInteractedAndCategory(t *testing.T) {
	profile := core.NewUserProfile(9)
	profile.AddInteracted(1)
	rctx := &core.RecommendContext{UserID: 9, Category: "Tech", User: profile}

	node := &FilterNode{Filters: []Filter{&InteractedFilter{}, &CategoryFilter{}}}
	out, err := node.Process(context.Background(), rctx, candidates())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, core.ItemIDs(out))

	rctx.Category = "Music"
	out, err = node.Process(context.Background(), rctx, candidates())
	require.NoError(t, err)
	assert.Empty(t, out)

	rctx.Category = ""
	out, err = node.Process(context.Background(), rctx, candidates())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, core.ItemIDs(out))
}

func TestBlacklistFromStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	adapter := NewStoreAdapter(s)
	require.NoError(t, adapter.SetBlacklist(ctx, "blacklist", []int64{3}))

	f := NewBlacklistFilter([]int64{2}, adapter, "blacklist")
	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(ctx, &core.RecommendContext{}, candidates())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, core.ItemIDs(out))

	missing := NewBlacklistFilter(nil, adapter, "absent")
	drop, err := missing.ShouldFilter(ctx, nil, item(1, "Tech"))
	require.NoError(t, err)
	assert.False(t, drop)
}

func TestExprFilter(t *testing.T) {
	_, err := NewExprFilter("item.category ==")
	assert.Error(t, err)

	f, err := NewExprFilter(`item.category != "Finance"`)
	require.NoError(t, err)
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), &core.RecommendContext{}, candidates())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4}, core.ItemIDs(out))
}
