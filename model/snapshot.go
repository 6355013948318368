package model

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/prepare"
)

// Snapshot 是一次构建得到的不可变推荐快照：预处理数据 + 三个相似度模型。
// 构建完成后只读，可被任意多个请求并发使用。
type Snapshot struct {
	Dataset      *prepare.Dataset
	Content      *ContentSimilarity
	Interactions *InteractionMatrix
	Users        *UserSimilarity
	BuiltAt      time.Time
}

// SnapshotOptions 控制快照构建。
type SnapshotOptions struct {
	MaxFeatures int
	Weights     WeightPolicy
	Logger      *zap.Logger
}

// BuildSnapshot 从预处理数据构建快照。
// 内容模型与交互/用户模型互不依赖，分别在两个 goroutine 中构建。
func BuildSnapshot(ctx context.Context, ds *prepare.Dataset, opts SnapshotOptions) (*Snapshot, error) {
	log := logger.OrNop(opts.Logger)
	snap := &Snapshot{Dataset: ds}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		ids := make([]int64, len(ds.Items))
		texts := make([]string, len(ds.Items))
		for i, it := range ds.Items {
			ids[i] = it.ID
			texts[i] = it.TextContent
		}
		snap.Content = BuildContentSimilarity(ids, texts, opts.MaxFeatures)
		log.Info("content similarity built",
			zap.Int("items", snap.Content.Len()),
			zap.Int("vocabulary", snap.Content.VocabularySize()),
			zap.Duration("took", time.Since(start)),
		)
		return gctx.Err()
	})
	g.Go(func() error {
		start := time.Now()
		snap.Interactions = BuildInteractionMatrix(ds, opts.Weights)
		if err := gctx.Err(); err != nil {
			return err
		}
		snap.Users = BuildUserSimilarity(snap.Interactions)
		log.Info("interaction models built",
			zap.Int("users", snap.Users.Len()),
			zap.Int("items", len(ds.Items)),
			zap.Duration("took", time.Since(start)),
		)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.BuiltAt = time.Now()
	return snap, nil
}

// BuildInteractionMatrix 把预处理后的四张交互表累加成交互矩阵。
func BuildInteractionMatrix(ds *prepare.Dataset, policy WeightPolicy) *InteractionMatrix {
	ids := make([]int64, len(ds.Items))
	for i, it := range ds.Items {
		ids[i] = it.ID
	}
	b := NewInteractionBuilder(ids, policy)
	for _, kind := range core.InteractionKinds {
		for _, ev := range ds.Interactions[kind] {
			b.Add(kind, ev)
		}
	}
	return b.Build()
}

// UserProfile 提取用户画像：已交互物品集合与按类别计数的兴趣。
// 用户不在行索引中时返回 nil。
func (s *Snapshot) UserProfile(userID int64) *core.UserProfile {
	interacted := s.Interactions.Interacted(userID)
	if interacted == nil {
		return nil
	}
	p := core.NewUserProfile(userID)
	for _, id := range interacted {
		p.AddInteracted(id)
		if it, ok := s.Dataset.Item(id); ok {
			p.UpdateInterest(it.Category, 1)
		}
	}
	p.UpdateTime = s.BuiltAt
	return p
}
