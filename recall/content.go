package recall

import (
	"context"
	"sort"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
)

// ContentRecall 是基于内容的召回源。
//
// 核心思想："用户交互过的物品在文本上相似的物品，用户也可能感兴趣"
//
// 物品内容分 = Σ_{j ∈ 用户已交互物品} 内容相似度(j, 物品)，写入 Features["content"]。
// 已交互物品取自 rctx.User；不在内容索引中的物品贡献为 0。
type ContentRecall struct {
	Content *model.ContentSimilarity
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Content == nil || rctx == nil || rctx.User == nil || len(rctx.User.Interacted) == 0 {
		return nil, nil
	}
	sources := make([]int64, 0, len(rctx.User.Interacted))
	for id := range rctx.User.Interacted {
		sources = append(sources, id)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	return scoredItems(r.Content.Scores(sources), model.FeatureContent), nil
}
