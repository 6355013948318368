package filter

import (
	"context"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/dsl"
)

// ExprFilter 保留满足 CEL 表达式的物品，不满足的被过滤。
//
// 示例：item.category != "Unknown"
type ExprFilter struct {
	expr *dsl.Expr
}

// NewExprFilter 编译表达式，语法错误在构建期返回。
func NewExprFilter(src string) (*ExprFilter, error) {
	e, err := dsl.Compile(src)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{expr: e}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.expr.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
