// Package engine 是推荐系统的门面：首次调用时从信号存储构建快照，之后在快照上排序。
//
// 用法：
//
//	eng := engine.New(signal.NewKVStore(store.NewMemoryStore(), "resonance"),
//		engine.WithLogger(log),
//	)
//	ids, err := eng.Recommend(ctx, userID, "Tech", 10)
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/metrics"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/prepare"
)

// Engine 懒加载快照并对外提供推荐。
//
// 并发的首次调用只会构建一次快照；构建失败不会被缓存，下一次调用会重试。
type Engine struct {
	reader  core.SignalReader
	cfg     core.EngineConfig
	weights model.WeightPolicy
	stages  *pipeline.Pipeline
	logger  *zap.Logger

	mu     sync.Mutex
	ranker *Ranker
}

// Option 配置 Engine。
type Option func(*Engine)

func WithConfig(cfg core.EngineConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStages 替换召回与硬约束过滤之后的阶段（打分、加权、截断等）。
func WithStages(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.stages = p }
}

// WithWeights 替换交互权重策略。
func WithWeights(w model.WeightPolicy) Option {
	return func(e *Engine) { e.weights = w }
}

func New(reader core.SignalReader, opts ...Option) *Engine {
	e := &Engine{
		reader:  reader,
		cfg:     core.DefaultEngineConfig(),
		weights: model.DefaultWeightPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.WithDefaults()
	e.logger = logger.OrNop(e.logger)
	return e
}

// Warmup 立即构建快照。
func (e *Engine) Warmup(ctx context.Context) error {
	_, err := e.load(ctx)
	return err
}

// Snapshot 返回当前快照，必要时先构建。
func (e *Engine) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	r, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return r.Snapshot(), nil
}

// Reload 重新构建快照并替换当前快照。构建期间请求继续使用旧快照；失败时保留旧快照。
func (e *Engine) Reload(ctx context.Context) error {
	r, err := e.build(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.ranker = r
	e.mu.Unlock()
	return nil
}

// Recommend 返回最多 k 个推荐物品 ID，k <= 0 时使用默认数量。category 为空表示不限类别。
func (e *Engine) Recommend(ctx context.Context, userID int64, category string, k int) ([]int64, error) {
	items, err := e.RecommendItems(ctx, userID, category, k)
	if err != nil {
		return nil, err
	}
	return core.ItemIDs(items), nil
}

// RecommendItems 与 Recommend 相同，但返回带分数与解释标签的物品。
func (e *Engine) RecommendItems(ctx context.Context, userID int64, category string, k int) ([]*core.Item, error) {
	start := time.Now()
	r, err := e.load(ctx)
	if err != nil {
		metrics.RecordRecommend(time.Since(start), "error")
		return nil, err
	}
	items, coldStart, err := r.rank(ctx, userID, category, k)
	switch {
	case err != nil:
		metrics.RecordRecommend(time.Since(start), "error")
		return nil, fmt.Errorf("engine: recommend user %d: %w", userID, err)
	case coldStart:
		metrics.RecordRecommend(time.Since(start), "cold_start")
	case len(items) == 0:
		metrics.RecordRecommend(time.Since(start), "empty")
	default:
		metrics.RecordRecommend(time.Since(start), "ok")
	}
	return items, nil
}

func (e *Engine) load(ctx context.Context) (*Ranker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ranker != nil {
		return e.ranker, nil
	}
	r, err := e.build(ctx)
	if err != nil {
		return nil, err
	}
	e.ranker = r
	return r, nil
}

func (e *Engine) build(ctx context.Context) (r *Ranker, err error) {
	start := time.Now()
	defer func() { metrics.RecordSnapshotBuild(time.Since(start), err) }()

	ds, err := prepare.New(e.reader, prepare.WithLogger(e.logger)).Prepare(ctx)
	if err != nil {
		e.logger.Error("prepare dataset failed", zap.Error(err))
		return nil, err
	}
	snap, err := model.BuildSnapshot(ctx, ds, model.SnapshotOptions{
		MaxFeatures: e.cfg.MaxFeatures,
		Weights:     e.weights,
		Logger:      e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: build snapshot: %w", err)
	}
	r, err = NewRanker(snap, e.cfg, e.stages, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Info("snapshot ready",
		zap.Int("items", len(ds.Items)),
		zap.Int("users", snap.Users.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return r, nil
}
