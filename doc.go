// Package resonance 是一个混合帖子推荐器。
//
// 组成：
// - signal: 信号表存取（KV / Redis / SQL）
// - prepare: 清洗物品表与交互表，拼接文本内容
// - model: TF-IDF 内容相似度、交互矩阵、用户相似度，组合为不可变快照
// - engine: Recall → Filter → Rank → ReRank 流水线与 recommend(user, category, k) 入口
// - ingest / enrich / server: 数据拉取、LLM 摘要分类与 HTTP /feed
package resonance

import "github.com/rushteam/resonance/pipeline"

// 轻量 facade：便于直接 import 根包使用流水线抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
)
