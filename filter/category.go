package filter

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// CategoryFilter 只保留类别与请求类别完全相等（区分大小写）的物品。
// Category 为空时使用 rctx.Category；两者都为空时不过滤。
type CategoryFilter struct {
	Category string
}

func (f *CategoryFilter) Name() string {
	return "filter.category"
}

func (f *CategoryFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	want := f.Category
	if want == "" && rctx != nil {
		want = rctx.Category
	}
	if want == "" {
		return false, nil
	}
	if item == nil {
		return true, nil
	}
	return item.Category() != want, nil
}
