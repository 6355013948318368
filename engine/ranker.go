package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/filter"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/rank"
	"github.com/rushteam/resonance/recall"
	"github.com/rushteam/resonance/rerank"
)

// Ranker 在一个不可变快照上为单个用户打分排序。
//
// 执行顺序固定为：召回（全目录 + 协同 + 内容） → 硬约束过滤（已交互、类别） → stages。
// 硬约束不随 stages 配置变化。Ranker 只读快照，可被并发调用。
type Ranker struct {
	snap   *model.Snapshot
	cfg    core.EngineConfig
	pipe   *pipeline.Pipeline
	logger *zap.Logger
}

// DefaultStages 返回默认的召回后阶段：可选黑名单/表达式过滤 → 混合打分 → 类别加权 → 截断。
func DefaultStages(cfg core.EngineConfig, log *zap.Logger) (*pipeline.Pipeline, error) {
	cfg = cfg.WithDefaults()
	nodes := make([]pipeline.Node, 0, 4)

	var extra []filter.Filter
	if len(cfg.BlacklistIDs) > 0 {
		extra = append(extra, filter.NewBlacklistFilter(cfg.BlacklistIDs, nil, ""))
	}
	if cfg.CandidateExpr != "" {
		f, err := filter.NewExprFilter(cfg.CandidateExpr)
		if err != nil {
			return nil, err
		}
		extra = append(extra, f)
	}
	if len(extra) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: extra, Logger: log})
	}

	nodes = append(nodes,
		rank.NewHybridNode(cfg.CollaborativeWeight, cfg.ContentWeight),
		&rerank.CategoryBoost{TopN: cfg.BoostTopCategories, Factor: cfg.BoostFactor},
		&rerank.TopNNode{},
	)
	return &pipeline.Pipeline{Name: "hybrid", Nodes: nodes}, nil
}

// NewRanker 基于快照创建 Ranker。stages 为 nil 时使用 DefaultStages。
func NewRanker(snap *model.Snapshot, cfg core.EngineConfig, stages *pipeline.Pipeline, log *zap.Logger) (*Ranker, error) {
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: nil snapshot")
	}
	cfg = cfg.WithDefaults()
	log = logger.OrNop(log)
	if stages == nil {
		var err error
		if stages, err = DefaultStages(cfg, log); err != nil {
			return nil, fmt.Errorf("engine: build stages: %w", err)
		}
	}
	candidates := &recall.Fanout{
		Sources: []recall.Source{
			&recall.Catalog{Dataset: snap.Dataset},
			&recall.UserBasedCF{Users: snap.Users, Interactions: snap.Interactions, TopKSimilarUsers: cfg.NeighborCount},
			&recall.ContentRecall{Content: snap.Content},
		},
		Dedup:         true,
		MaxConcurrent: 1,
		Strict:        true,
		Logger:        log,
	}
	guard := &filter.FilterNode{
		Filters: []filter.Filter{&filter.InteractedFilter{}, &filter.CategoryFilter{}},
		Logger:  log,
	}
	pipe := (&pipeline.Pipeline{Name: stages.Name, Nodes: []pipeline.Node{candidates, guard}}).Append(stages.Nodes...)
	return &Ranker{snap: snap, cfg: cfg, pipe: pipe, logger: log}, nil
}

// Snapshot 返回 Ranker 使用的快照。
func (r *Ranker) Snapshot() *model.Snapshot { return r.snap }

// Recommend 返回最多 k 个推荐物品 ID。
func (r *Ranker) Recommend(ctx context.Context, userID int64, category string, k int) ([]int64, error) {
	items, err := r.RecommendItems(ctx, userID, category, k)
	if err != nil {
		return nil, err
	}
	return core.ItemIDs(items), nil
}

// RecommendItems 返回带分数与解释标签的推荐物品。
// 无交互历史的用户（冷启动）与过滤后无候选的请求返回空列表而非错误。
func (r *Ranker) RecommendItems(ctx context.Context, userID int64, category string, k int) ([]*core.Item, error) {
	items, _, err := r.rank(ctx, userID, category, k)
	return items, err
}

func (r *Ranker) rank(ctx context.Context, userID int64, category string, k int) ([]*core.Item, bool, error) {
	if k <= 0 {
		k = r.cfg.DefaultK
	}
	profile := r.snap.UserProfile(userID)
	if profile == nil || len(profile.Interacted) == 0 {
		return []*core.Item{}, true, nil
	}

	rctx := &core.RecommendContext{
		UserID:   userID,
		Category: category,
		K:        k,
		User:     profile,
		Params:   map[string]any{},
	}
	items, err := r.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, false, err
	}
	if len(items) > k {
		items = items[:k]
	}
	if items == nil {
		items = []*core.Item{}
	}
	r.logger.Debug("recommend",
		zap.Int64("user", userID),
		zap.String("category", category),
		zap.Int("k", k),
		zap.Int("returned", len(items)),
	)
	return items, false, nil
}
