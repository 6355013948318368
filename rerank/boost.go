// Package rerank 在排序结果上做偏好加权与截断。
package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/utils"
)

// CategoryBoost 对用户偏好类别中的物品乘以 Factor，然后重新排序。
//
// 偏好类别 = 用户已交互物品按类别计数的前 TopN 个（计数降序，相同计数按类别名升序），
// 见 core.UserProfile.TopInterests。加权作用于过滤后的候选，被过滤掉的类别不再参与。
type CategoryBoost struct {
	TopN   int     // 默认 3
	Factor float64 // 默认 1.2
}

func (n *CategoryBoost) Name() string {
	return "rerank.category_boost"
}

func (n *CategoryBoost) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *CategoryBoost) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || rctx.User == nil {
		return items, nil
	}
	topN := n.TopN
	if topN <= 0 {
		topN = 3
	}
	factor := n.Factor
	if factor == 0 {
		factor = 1.2
	}

	top := rctx.User.TopInterests(topN)
	if len(top) == 0 {
		return items, nil
	}
	preferred := make(map[string]struct{}, len(top))
	for _, c := range top {
		preferred[c] = struct{}{}
	}
	rctx.PutLabel("preferred_categories", utils.Label{Value: strings.Join(top, "|"), Source: "rerank"})

	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := preferred[it.Category()]; ok {
			it.Score *= factor
			it.PutLabel("category_boost", utils.Label{Value: it.Category(), Source: "rerank"})
		}
	}
	core.SortItems(items)
	return items, nil
}
