package enrich

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/metrics"
	"github.com/rushteam/resonance/pkg/logger"
)

// DefaultWorkers 是并发摘要的默认 worker 数。
const DefaultWorkers = 5

// Report 汇总一次批处理。
type Report struct {
	Total     int // 输入帖子数
	Succeeded int // 摘要成功
	Degraded  int // 摘要失败，使用默认摘要/类别
	Skipped   int // ctx 取消后未处理
}

// Pool 以固定数量的 worker 并发为帖子生成摘要。
//
// 单个帖子失败不影响其他帖子：失败的帖子降级为 Fallback 结果。
// ctx 取消时停止派发新任务，已完成的结果仍会写入 Writer。
type Pool struct {
	summarizer Summarizer
	writer     core.SignalWriter
	workers    int
	logger     *zap.Logger
}

// PoolOption 配置 Pool。
type PoolOption func(*Pool)

// WithWriter 设置结果写入的信号存储；为空时只返回结果不落库。
func WithWriter(w core.SignalWriter) PoolOption { return func(p *Pool) { p.writer = w } }

func WithWorkers(n int) PoolOption { return func(p *Pool) { p.workers = n } }

func WithPoolLogger(l *zap.Logger) PoolOption { return func(p *Pool) { p.logger = l } }

func NewPool(s Summarizer, opts ...PoolOption) *Pool {
	p := &Pool{summarizer: s, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = DefaultWorkers
	}
	p.logger = logger.OrNop(p.logger)
	return p
}

// Run 从 reader 加载全部帖子并处理。
func (p *Pool) Run(ctx context.Context, reader core.PostReader) ([]core.EnrichedItem, Report, error) {
	posts, err := reader.LoadPosts(ctx)
	if err != nil {
		return nil, Report{}, fmt.Errorf("enrich: load posts: %w", err)
	}
	p.logger.Info("loaded posts", zap.Int("count", len(posts)))
	return p.Process(ctx, posts)
}

// Process 处理 posts，按输入顺序返回已完成的物品记录。
// 返回的 error 只来自写入失败或 ctx 取消；单个摘要失败只体现在 Report.Degraded。
func (p *Pool) Process(ctx context.Context, posts []core.Post) ([]core.EnrichedItem, Report, error) {
	report := Report{Total: len(posts)}
	results := make([]*core.EnrichedItem, len(posts))
	degraded := make([]bool, len(posts))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, post := range posts {
		i, post := i, post
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			item, ok := p.one(ctx, post)
			results[i] = &item
			degraded[i] = !ok
			return nil
		})
	}
	_ = g.Wait()

	items := make([]core.EnrichedItem, 0, len(posts))
	for i, r := range results {
		if r == nil {
			report.Skipped++
			continue
		}
		if degraded[i] {
			report.Degraded++
		} else {
			report.Succeeded++
		}
		items = append(items, *r)
	}

	p.logger.Info("enrichment finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("degraded", report.Degraded),
		zap.Int("skipped", report.Skipped),
	)

	if p.writer != nil && len(items) > 0 {
		// 取消后仍保存已完成的部分
		if err := p.writer.SaveItems(context.WithoutCancel(ctx), items); err != nil {
			return items, report, fmt.Errorf("enrich: save items: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return items, report, err
	}
	return items, report, nil
}

func (p *Pool) one(ctx context.Context, post core.Post) (core.EnrichedItem, bool) {
	start := time.Now()
	flat := FlattenPost(post)

	res, err := p.summarizer.Summarize(ctx, flat)
	if err != nil {
		p.logger.Error("summarize failed", zap.Int64("post", post.ID), zap.Error(err))
		metrics.RecordEnriched("degraded", time.Since(start))
		fb := Fallback()
		if core.IsInvalidInput(err) {
			fb.Summary = MissingKeySummary
		}
		return flat.Item(fb), false
	}
	if !IsCategory(res.Category) {
		res.Category = DefaultCategory
	}
	metrics.RecordEnriched("ok", time.Since(start))
	return flat.Item(res), true
}
