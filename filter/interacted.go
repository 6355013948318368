package filter

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// InteractedFilter 剔除用户已交互过的物品（四类交互的并集）。
// 这是硬过滤，不做降权。已交互集合取自 rctx.User。
type InteractedFilter struct{}

func (f *InteractedFilter) Name() string {
	return "filter.interacted"
}

func (f *InteractedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.HasInteracted(item.ID), nil
}
