// Package prepare 把信号存储中的原始表整理成建模所需的数据集：
// 物品缺失字段补默认值、拼接文本，交互表剔除目录外物品。
package prepare

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/metrics"
	"github.com/rushteam/resonance/pkg/logger"
)

// UnknownCategory 是缺失类别的占位值。
const UnknownCategory = "Unknown"

// Item 是预处理后的物品。
type Item struct {
	ID          int64
	Category    string
	Synopsis    string
	Keywords    string // 空格拼接
	TextContent string // Synopsis + " " + Keywords
}

// Dataset 是一次预处理的结果，构建后只读。
type Dataset struct {
	// Items 按 ID 升序
	Items []Item

	// Index 物品 ID -> Items 下标
	Index map[int64]int

	// Interactions 每类交互中物品在目录内的记录（保持原顺序）
	Interactions map[core.InteractionKind][]core.Interaction

	// Dropped 每类交互被剔除的记录数
	Dropped map[core.InteractionKind]int
}

// HasItem 判断物品是否在目录中。
func (d *Dataset) HasItem(id int64) bool {
	_, ok := d.Index[id]
	return ok
}

// Item 返回物品，不存在时 ok 为 false。
func (d *Dataset) Item(id int64) (Item, bool) {
	i, ok := d.Index[id]
	if !ok {
		return Item{}, false
	}
	return d.Items[i], true
}

// FromTables 对已加载的表做预处理，不做 IO。
// 重复的 PostID 保留最后一条。
func FromTables(items []core.EnrichedItem, tables map[core.InteractionKind][]core.Interaction) *Dataset {
	byID := make(map[int64]core.EnrichedItem, len(items))
	for _, it := range items {
		byID[it.PostID] = it
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ds := &Dataset{
		Items:        make([]Item, 0, len(ids)),
		Index:        make(map[int64]int, len(ids)),
		Interactions: make(map[core.InteractionKind][]core.Interaction, len(core.InteractionKinds)),
		Dropped:      make(map[core.InteractionKind]int, len(core.InteractionKinds)),
	}
	for _, id := range ids {
		ds.Index[id] = len(ds.Items)
		ds.Items = append(ds.Items, normalize(byID[id]))
	}

	for _, kind := range core.InteractionKinds {
		rows := tables[kind]
		kept := make([]core.Interaction, 0, len(rows))
		for _, r := range rows {
			if ds.HasItem(r.ItemID) {
				kept = append(kept, r)
			}
		}
		ds.Interactions[kind] = kept
		ds.Dropped[kind] = len(rows) - len(kept)
	}
	return ds
}

func normalize(it core.EnrichedItem) Item {
	category := it.Category
	if category == "" {
		category = UnknownCategory
	}
	keywords := it.Keywords.Join()
	return Item{
		ID:          it.PostID,
		Category:    category,
		Synopsis:    it.Summary,
		Keywords:    keywords,
		TextContent: it.Summary + " " + keywords,
	}
}

// Preparer 从 core.SignalReader 加载并预处理数据。
type Preparer struct {
	reader core.SignalReader
	logger *zap.Logger
}

// Option 配置 Preparer。
type Option func(*Preparer)

func WithLogger(l *zap.Logger) Option {
	return func(p *Preparer) { p.logger = l }
}

func New(reader core.SignalReader, opts ...Option) *Preparer {
	p := &Preparer{reader: reader}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.OrNop(p.logger)
	return p
}

// Prepare 并发加载物品表与四张交互表。
// 物品表加载失败是致命错误；交互表缺失由后端按空表返回。
func (p *Preparer) Prepare(ctx context.Context) (*Dataset, error) {
	var (
		items  []core.EnrichedItem
		mu     sync.Mutex
		tables = make(map[core.InteractionKind][]core.Interaction, len(core.InteractionKinds))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := p.reader.LoadItems(gctx)
		if err != nil {
			return fmt.Errorf("prepare: load items from %s: %w", p.reader.Name(), err)
		}
		items = loaded
		return nil
	})
	for _, kind := range core.InteractionKinds {
		kind := kind
		g.Go(func() error {
			rows, err := p.reader.LoadInteractions(gctx, kind)
			if err != nil {
				return fmt.Errorf("prepare: load %s interactions from %s: %w", kind, p.reader.Name(), err)
			}
			mu.Lock()
			tables[kind] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := FromTables(items, tables)
	for _, kind := range core.InteractionKinds {
		n := ds.Dropped[kind]
		metrics.RecordDroppedInteractions(string(kind), n)
		p.logger.Info("filtered interactions",
			zap.String("kind", string(kind)),
			zap.Int("kept", len(ds.Interactions[kind])),
			zap.Int("dropped", n),
		)
	}
	if len(ds.Items) == 0 {
		p.logger.Warn("item catalog is empty")
	}
	return ds, nil
}
