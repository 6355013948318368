package pipeline

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// Kind 用于标记 Node 所处阶段，方便观测与编排。
type Kind string

const (
	KindRecall Kind = "recall" // 召回：生成候选集（全目录 + 协同分 + 内容分）
	KindFilter Kind = "filter" // 过滤：已交互剔除、类别约束
	KindRank   Kind = "rank"   // 排序：混合打分
	KindReRank Kind = "rerank" // 重排：偏好类别加权、TopN 截断
)

// Node 是 Pipeline 的最小可扩展单元，统一为"输入 items -> 输出 items"。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
