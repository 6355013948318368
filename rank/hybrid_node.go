// Package rank 对候选打分并排序。
package rank

import (
	"context"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/utils"
)

// ModelNode 用 RankModel 对每个候选打分：
//   - 写入 item.Score 与 label rank_model
//   - 按分数降序排序，分数相同按 ID 升序
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		score, err := n.Model.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}
	core.SortItems(items)
	return items, nil
}

// NewHybridNode 返回 collaborative × wCF + content × wContent 的打分节点。
func NewHybridNode(collaborativeWeight, contentWeight float64) *ModelNode {
	return &ModelNode{Model: model.NewHybridBlend(collaborativeWeight, contentWeight)}
}
