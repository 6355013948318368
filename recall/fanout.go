package recall

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/pkg/utils"
)

// 合并策略
const (
	MergeFirst    = "first"    // 按 ID 去重，保留首个出现的物品并叠加后续同 ID 物品的特征/标签
	MergeUnion    = "union"    // 不去重
	MergePriority = "priority" // 按 ID 去重，Sources 中越靠前的源优先
)

// Fanout 是一个 Recall Node：执行多个召回源并合并结果。
//
// 合并后的顺序与源无关：按 ID 升序输出，保证结果确定。
// 单个源失败或超时只记录日志，不影响其他源；Strict 为 true 时任一源失败即返回错误。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（<= 0 表示无限制，1 表示串行）
	MergeStrategy string
	Strict        bool
	Logger        *zap.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	log := logger.OrNop(n.Logger)

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.Strict {
					return err
				}
				log.Warn("recall source failed", zap.String("source", src.Name()), zap.Error(err))
				return nil
			}

			for _, it := range items {
				if it == nil {
					continue
				}
				it.PutLabel(LabelRecallSource, utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel(LabelRecallPriority, utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	var out []*core.Item
	switch n.MergeStrategy {
	case MergeUnion:
		out = all
	case MergePriority:
		out = n.merge(all, true)
	default:
		out = n.merge(all, false)
	}
	core.SortItemsByID(out)
	return out, nil
}

// merge 按 ID 去重。all 已按 Sources 顺序排列，故"首个出现"即优先级最高的源。
// preferFirst 为 false 时后续同 ID 物品的特征会覆盖同名特征；为 true 时保留先出现的值。
func (n *Fanout) merge(all []*core.Item, preferFirst bool) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[int64]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		old, ok := seen[it.ID]
		if !ok {
			seen[it.ID] = it
			out = append(out, it)
			continue
		}
		mergeInto(old, it, preferFirst)
	}
	return out
}

func mergeInto(dst, src *core.Item, preferFirst bool) {
	for k, v := range src.Features {
		if _, exists := dst.Features[k]; exists && preferFirst {
			continue
		}
		dst.Features[k] = v
	}
	for k, v := range src.Meta {
		if _, exists := dst.Meta[k]; !exists {
			dst.Meta[k] = v
		}
	}
	for k, v := range src.Labels {
		dst.PutLabel(k, v)
	}
}
