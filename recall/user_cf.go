package recall

import (
	"context"
	"sort"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
)

// UserBasedCF 是基于用户的协同过滤召回源（u2u → u2i）。
//
// 算法流程：
//  1. 从用户相似度矩阵取与目标用户最相似的 TopK 个其他用户（剔除自己）
//  2. 物品协同分 = Σ 邻居相似度 × 邻居对该物品的交互权重
//
// 只返回协同分非零的物品，分数写入 Features["collaborative"]。
type UserBasedCF struct {
	Users        *model.UserSimilarity
	Interactions *model.InteractionMatrix

	// TopKSimilarUsers 参与打分的邻居数，默认 10
	TopKSimilarUsers int
}

func (r *UserBasedCF) Name() string { return "recall.u2i" }

func (r *UserBasedCF) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Users == nil || r.Interactions == nil || rctx == nil {
		return nil, nil
	}
	k := r.TopKSimilarUsers
	if k <= 0 {
		k = 10
	}

	scores := make(map[int64]float64)
	for _, nb := range r.Users.Neighbors(rctx.UserID, k) {
		if nb.Similarity == 0 {
			continue
		}
		row := r.Interactions.Row(nb.UserID)
		ids := make([]int64, 0, len(row))
		for id := range row {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			scores[id] += nb.Similarity * row[id]
		}
	}
	return scoredItems(scores, model.FeatureCollaborative), nil
}

// scoredItems 把 itemID -> score 转成按 ID 升序的 Item 列表，分数写入 feature。
func scoredItems(scores map[int64]float64, feature string) []*core.Item {
	ids := make([]int64, 0, len(scores))
	for id, s := range scores {
		if s != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.Features[feature] = scores[id]
		out = append(out, it)
	}
	return out
}
