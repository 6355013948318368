package model

import (
	"sort"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/feature"
)

// WeightPolicy 是交互信号到权重的映射。
type WeightPolicy struct {
	View    float64 `yaml:"view"`
	Like    float64 `yaml:"like"`
	Inspire float64 `yaml:"inspire"`

	// RatingThreshold 评分百分比严格大于该值才计入，权重为 percent/100
	RatingThreshold float64 `yaml:"rating_threshold"`
}

// DefaultWeightPolicy view 0.5 / like 1.0 / inspire 1.5 / rating(>50) percent/100
func DefaultWeightPolicy() WeightPolicy {
	return WeightPolicy{View: 0.5, Like: 1.0, Inspire: 1.5, RatingThreshold: 50}
}

// Weight 返回单条事件的权重。低分评分返回 0，不是负反馈。
func (p WeightPolicy) Weight(kind core.InteractionKind, percent float64) float64 {
	switch kind {
	case core.KindView:
		return p.View
	case core.KindLike:
		return p.Like
	case core.KindInspire:
		return p.Inspire
	case core.KindRating:
		if percent > p.RatingThreshold {
			return percent / 100.0
		}
	}
	return 0
}

type cellKey struct {
	user, item int64
}

// cell 记录单元格的事件而非直接累加的和，
// 使最终结果与事件到达顺序无关（浮点加法不满足结合律）。
type cell struct {
	views, likes, inspires int
	ratings                []float64
}

func (c *cell) total(p WeightPolicy) float64 {
	sort.Float64s(c.ratings)
	sum := float64(c.views)*p.View + float64(c.likes)*p.Like + float64(c.inspires)*p.Inspire
	for _, r := range c.ratings {
		sum += r
	}
	return sum
}

// InteractionBuilder 累加交互事件，生成 InteractionMatrix。
// 同一 (user, item) 的重复事件每次都计入权重。非并发安全。
type InteractionBuilder struct {
	policy  WeightPolicy
	items   []int64
	catalog map[int64]int
	cells   map[cellKey]*cell
	users   map[int64]struct{}
}

// NewInteractionBuilder 以物品目录为列创建构建器；目录外物品的事件被忽略。
func NewInteractionBuilder(itemIDs []int64, policy WeightPolicy) *InteractionBuilder {
	items := append([]int64(nil), itemIDs...)
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	catalog := make(map[int64]int, len(items))
	for i, id := range items {
		catalog[id] = i
	}
	return &InteractionBuilder{
		policy:  policy,
		items:   items,
		catalog: catalog,
		cells:   make(map[cellKey]*cell),
		users:   make(map[int64]struct{}),
	}
}

// Add 计入一条事件，返回是否被接受（物品在目录中）。
// 权重为 0 的事件（低分评分）同样让用户进入行索引并记为已交互。
func (b *InteractionBuilder) Add(kind core.InteractionKind, ev core.Interaction) bool {
	if _, ok := b.catalog[ev.ItemID]; !ok {
		return false
	}
	key := cellKey{user: ev.UserID, item: ev.ItemID}
	c, ok := b.cells[key]
	if !ok {
		c = &cell{}
		b.cells[key] = c
	}
	switch kind {
	case core.KindView:
		c.views++
	case core.KindLike:
		c.likes++
	case core.KindInspire:
		c.inspires++
	case core.KindRating:
		if w := b.policy.Weight(kind, ev.Percent); w > 0 {
			c.ratings = append(c.ratings, w)
		}
	}
	b.users[ev.UserID] = struct{}{}
	return true
}

// Build 冻结当前状态。Build 之后继续 Add 不影响已返回的矩阵。
func (b *InteractionBuilder) Build() *InteractionMatrix {
	users := make([]int64, 0, len(b.users))
	for u := range b.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	m := &InteractionMatrix{
		users:      users,
		userIndex:  make(map[int64]int, len(users)),
		items:      append([]int64(nil), b.items...),
		itemIndex:  make(map[int64]int, len(b.items)),
		rows:       make([]feature.Vector, len(users)),
		interacted: make([][]int64, len(users)),
	}
	for i, u := range users {
		m.userIndex[u] = i
	}
	for id, i := range b.catalog {
		m.itemIndex[id] = i
	}

	rowWeights := make([]map[int]float64, len(users))
	for key, c := range b.cells {
		ui := m.userIndex[key.user]
		if rowWeights[ui] == nil {
			rowWeights[ui] = make(map[int]float64)
		}
		ii := b.catalog[key.item]
		rowWeights[ui][ii] = c.total(b.policy)
		m.interacted[ui] = append(m.interacted[ui], key.item)
	}
	for ui := range users {
		m.rows[ui] = feature.NewVector(rowWeights[ui])
		sort.Slice(m.interacted[ui], func(i, j int) bool { return m.interacted[ui][i] < m.interacted[ui][j] })
	}
	return m
}

// InteractionMatrix 是用户 × 物品的加权交互矩阵（稀疏行存储，语义上稠密）：
// 未被任何事件触达的 (user, item) 读出为 0。
// 行 = 至少出现在一张交互表中的用户；列 = 物品目录。
type InteractionMatrix struct {
	users     []int64
	userIndex map[int64]int
	items     []int64
	itemIndex map[int64]int

	// rows[i] 的 Index 为 items 下标
	rows []feature.Vector

	// interacted[i] 是用户在四张表中出现过的物品（升序），包含权重为 0 的
	interacted [][]int64
}

// Users 返回行索引（升序）。
func (m *InteractionMatrix) Users() []int64 { return append([]int64(nil), m.users...) }

// Items 返回列索引（升序）。
func (m *InteractionMatrix) Items() []int64 { return append([]int64(nil), m.items...) }

// HasUser 判断用户是否在行索引中。
func (m *InteractionMatrix) HasUser(userID int64) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// Weight 返回 (user, item) 的累计权重，未触达或不在索引中均为 0。
func (m *InteractionMatrix) Weight(userID, itemID int64) float64 {
	ui, ok := m.userIndex[userID]
	if !ok {
		return 0
	}
	ii, ok := m.itemIndex[itemID]
	if !ok {
		return 0
	}
	for _, e := range m.rows[ui] {
		if e.Index == ii {
			return e.Value
		}
		if e.Index > ii {
			break
		}
	}
	return 0
}

// Row 返回用户的非零权重 itemID -> weight。
func (m *InteractionMatrix) Row(userID int64) map[int64]float64 {
	ui, ok := m.userIndex[userID]
	if !ok {
		return nil
	}
	out := make(map[int64]float64, len(m.rows[ui]))
	for _, e := range m.rows[ui] {
		out[m.items[e.Index]] = e.Value
	}
	return out
}

// Interacted 返回用户交互过的物品（升序）。
func (m *InteractionMatrix) Interacted(userID int64) []int64 {
	ui, ok := m.userIndex[userID]
	if !ok {
		return nil
	}
	return append([]int64(nil), m.interacted[ui]...)
}

func (m *InteractionMatrix) row(ui int) feature.Vector { return m.rows[ui] }
