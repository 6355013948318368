// Package filter 提供候选过滤：已交互剔除、类别约束、黑名单与 CEL 表达式。
package filter

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// Filter 判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
