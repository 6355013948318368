package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/config"
	_ "github.com/rushteam/resonance/config/builders"
	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/prepare"
)

type fakeReader struct {
	items  []core.EnrichedItem
	tables map[core.InteractionKind][]core.Interaction

	loads   atomic.Int32
	failFor int32 // 前 failFor 次 LoadItems 返回错误
}

func (r *fakeReader) Name() string { return "fake" }

func (r *fakeReader) LoadInteractions(_ context.Context, kind core.InteractionKind) ([]core.Interaction, error) {
	return r.tables[kind], nil
}

func (r *fakeReader) LoadItems(context.Context) ([]core.EnrichedItem, error) {
	if n := r.loads.Add(1); n <= r.failFor {
		return nil, core.ErrCatalogMissing
	}
	return r.items, nil
}

func techReader() *fakeReader {
	return &fakeReader{
		items: []core.EnrichedItem{
			{PostID: 1, Summary: "golang concurrency channels", Category: "Tech"},
			{PostID: 2, Summary: "golang channels tutorial", Category: "Tech"},
			{PostID: 3, Summary: "golang concurrency tutorial", Category: "Tech"},
			{PostID: 4, Summary: "golang channels concurrency patterns", Category: "Tech"},
			{PostID: 5, Summary: "bread baking recipes", Category: "Food"},
			{PostID: 6, Summary: "pasta cooking recipes", Category: "Food"},
		},
		tables: map[core.InteractionKind][]core.Interaction{
			core.KindLike: {{UserID: 1, ItemID: 1}, {UserID: 2, ItemID: 5}},
			core.KindView: {{UserID: 1, ItemID: 2}, {UserID: 3, ItemID: 404}},
			core.KindRating: {
				{UserID: 2, ItemID: 6, Percent: 90},
				{UserID: 4, ItemID: 1, Percent: 80},
				{UserID: 4, ItemID: 3, Percent: 70},
			},
		},
	}
}

func TestRecommendSimilarContent(t *testing.T) {
	eng := New(techReader())
	ctx := context.Background()

	ids, err := eng.Recommend(ctx, 1, "", 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{3, 4}, ids)

	ids, err = eng.Recommend(ctx, 1, "Finance", 5)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	ids, err = eng.Recommend(ctx, 1, "Food", 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, ids)
}

func TestRecommendDefaultK(t *testing.T) {
	eng := New(techReader())
	ids, err := eng.Recommend(context.Background(), 1, "", 0)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
	assert.Equal(t, []int64{5, 6}, ids[2:])
}

func TestRecommendColdStart(t *testing.T) {
	eng := New(techReader())
	for _, user := range []int64{99, 3} {
		ids, err := eng.Recommend(context.Background(), user, "", 10)
		require.NoError(t, err)
		assert.Empty(t, ids, "user %d", user)
	}
}

func TestRecommendExcludesInteracted(t *testing.T) {
	eng := New(techReader())
	snap, err := eng.Snapshot(context.Background())
	require.NoError(t, err)

	for _, user := range snap.Interactions.Users() {
		ids, err := eng.Recommend(context.Background(), user, "", 100)
		require.NoError(t, err)
		for _, id := range ids {
			assert.NotContains(t, snap.Interactions.Interacted(user), id, "user %d got interacted item %d", user, id)
			assert.True(t, snap.Dataset.HasItem(id))
		}
		seen := map[int64]bool{}
		for _, id := range ids {
			assert.False(t, seen[id], "duplicate %d", id)
			seen[id] = true
		}
	}
}

func TestRecommendDeterministic(t *testing.T) {
	eng := New(techReader())
	first, err := eng.Recommend(context.Background(), 4, "", 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := New(techReader()).Recommend(context.Background(), 4, "", 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRecommendItemsLabels(t *testing.T) {
	items, err := New(techReader()).RecommendItems(context.Background(), 1, "Tech", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, ok := items[0].Labels["category_boost"]
	assert.True(t, ok)
	_, ok = items[0].Labels["rank_model"]
	assert.True(t, ok)
}

func TestConcurrentFirstCallsBuildOnce(t *testing.T) {
	r := techReader()
	eng := New(r)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Recommend(context.Background(), 1, "", 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), r.loads.Load())
}

func TestFailedBuildIsRetried(t *testing.T) {
	r := techReader()
	r.failFor = 1
	eng := New(r)

	_, err := eng.Recommend(context.Background(), 1, "", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCatalogMissing))

	ids, err := eng.Recommend(context.Background(), 1, "", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, ids)
	assert.Equal(t, int32(2), r.loads.Load())
}

func TestReloadKeepsOldSnapshotOnError(t *testing.T) {
	r := techReader()
	eng := New(r)
	require.NoError(t, eng.Warmup(context.Background()))
	before, _ := eng.Snapshot(context.Background())

	r.failFor = 100
	assert.Error(t, eng.Reload(context.Background()))
	after, _ := eng.Snapshot(context.Background())
	assert.Same(t, before, after)
}

func TestRankerWithConfiguredStages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  name: configured
  nodes:
    - type: filter
      config:
        filters:
          - type: blacklist
            item_ids: [3]
    - type: rank.hybrid
      config: {collaborative_weight: 0.6, content_weight: 0.4}
    - type: rerank.topn
      config: {n: 1}
`), 0o600))
	stages, err := config.LoadStages(path)
	require.NoError(t, err)

	r := techReader()
	ds := prepare.FromTables(r.items, r.tables)
	snap, err := model.BuildSnapshot(context.Background(), ds, model.SnapshotOptions{Weights: model.DefaultWeightPolicy()})
	require.NoError(t, err)

	ranker, err := NewRanker(snap, core.EngineConfig{}, stages, nil)
	require.NoError(t, err)
	ids, err := ranker.Recommend(context.Background(), 1, "", 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)
}

func TestDefaultStagesInvalidExpr(t *testing.T) {
	cfg := core.DefaultEngineConfig()
	cfg.CandidateExpr = "item.id >"
	_, err := DefaultStages(cfg, nil)
	assert.Error(t, err)
}
