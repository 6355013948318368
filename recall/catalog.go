package recall

import (
	"context"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/prepare"
)

// Catalog 召回目录中的全部物品，并把类别写入 Meta。
// 混合打分要覆盖全目录，即使某物品的协同分与内容分都为 0。
// Catalog 同时实现 Source 与 Node，可直接放在 Pipeline 首位。
type Catalog struct {
	Dataset *prepare.Dataset
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Catalog) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if r.Dataset == nil {
		return nil, nil
	}
	out := make([]*core.Item, 0, len(r.Dataset.Items))
	for _, it := range r.Dataset.Items {
		item := core.NewItem(it.ID)
		item.Meta[core.MetaCategory] = it.Category
		out = append(out, item)
	}
	return out, nil
}
