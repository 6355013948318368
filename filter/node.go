package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/logger"
)

// FilterNode 组合多个过滤器，任何一个过滤器返回 true 该物品即被移除。
// 过滤器出错时记录日志并视为不过滤。
type FilterNode struct {
	Filters []Filter
	Logger  *zap.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	log := logger.OrNop(n.Logger)

	out := make([]*core.Item, 0, len(items))
	dropped := make(map[string]int, len(n.Filters))
	for _, item := range items {
		if item == nil {
			continue
		}
		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				log.Debug("filter error", zap.String("filter", f.Name()), zap.Int64("item", item.ID), zap.Error(err))
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}
		if reason != "" {
			dropped[reason]++
			continue
		}
		out = append(out, item)
	}

	if ce := log.Check(zap.DebugLevel, "candidates filtered"); ce != nil {
		ce.Write(zap.Int("in", len(items)), zap.Int("out", len(out)), zap.Any("dropped", dropped))
	}
	return out, nil
}
