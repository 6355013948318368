package recall

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// Source 是一个召回源（全目录 / 用户协同 / 内容相似）。
// 多个 Source 由 Fanout 合并，同一物品的特征与标签在合并时叠加。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 标签 key
const (
	LabelRecallSource   = "recall_source"
	LabelRecallPriority = "recall_priority"
)
