package prepare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
)

type fakeReader struct {
	items    []core.EnrichedItem
	itemsErr error
	tables   map[core.InteractionKind][]core.Interaction
}

func (f *fakeReader) Name() string { return "fake" }

func (f *fakeReader) LoadInteractions(ctx context.Context, kind core.InteractionKind) ([]core.Interaction, error) {
	return f.tables[kind], nil
}

func (f *fakeReader) LoadItems(ctx context.Context) ([]core.EnrichedItem, error) {
	return f.items, f.itemsErr
}

func TestFromTablesNormalizesItems(t *testing.T) {
	ds := FromTables([]core.EnrichedItem{
		{PostID: 2, Summary: "", Category: "", Keywords: nil},
		{PostID: 1, Summary: "fast cars", Category: "Auto", Keywords: core.Keywords{"engine", "speed"}},
		{PostID: 2, Summary: "second", Category: "Tech"},
	}, nil)

	require.Len(t, ds.Items, 2)
	assert.Equal(t, Item{ID: 1, Category: "Auto", Synopsis: "fast cars", Keywords: "engine speed", TextContent: "fast cars engine speed"}, ds.Items[0])
	// 重复 PostID 保留最后一条
	assert.Equal(t, "second", ds.Items[1].Synopsis)
	assert.Equal(t, "Tech", ds.Items[1].Category)

	ds = FromTables([]core.EnrichedItem{{PostID: 5}}, nil)
	it, ok := ds.Item(5)
	require.True(t, ok)
	assert.Equal(t, UnknownCategory, it.Category)
	assert.Equal(t, " ", it.TextContent)
}

func TestFromTablesDropsUnknownItems(t *testing.T) {
	ds := FromTables(
		[]core.EnrichedItem{{PostID: 1}, {PostID: 2}},
		map[core.InteractionKind][]core.Interaction{
			core.KindView:   {{UserID: 1, ItemID: 1}, {UserID: 1, ItemID: 99}, {UserID: 2, ItemID: 2}},
			core.KindRating: {{UserID: 3, ItemID: 98, Percent: 80}},
		},
	)
	assert.Len(t, ds.Interactions[core.KindView], 2)
	assert.Equal(t, 1, ds.Dropped[core.KindView])
	assert.Empty(t, ds.Interactions[core.KindRating])
	assert.Equal(t, 1, ds.Dropped[core.KindRating])
	assert.Equal(t, 0, ds.Dropped[core.KindLike])
	assert.NotNil(t, ds.Interactions[core.KindLike])
}

func TestPreparerPrepare(t *testing.T) {
	r := &fakeReader{
		items: []core.EnrichedItem{{PostID: 10, Category: "Tech"}},
		tables: map[core.InteractionKind][]core.Interaction{
			core.KindLike: {{UserID: 1, ItemID: 10}, {UserID: 1, ItemID: 11}},
		},
	}
	ds, err := New(r).Prepare(context.Background())
	require.NoError(t, err)
	assert.True(t, ds.HasItem(10))
	assert.Equal(t, 1, ds.Dropped[core.KindLike])
}

func TestPreparerEmptyCatalogIsNotError(t *testing.T) {
	ds, err := New(&fakeReader{}).Prepare(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ds.Items)
}

func TestPreparerCatalogMissing(t *testing.T) {
	_, err := New(&fakeReader{itemsErr: core.ErrCatalogMissing}).Prepare(context.Background())
	assert.ErrorIs(t, err, core.ErrCatalogMissing)

	boom := errors.New("boom")
	_, err = New(&fakeReader{itemsErr: boom}).Prepare(context.Background())
	assert.ErrorIs(t, err, boom)
}
