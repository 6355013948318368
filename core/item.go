package core

import (
	"sort"

	"github.com/rushteam/resonance/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Category 返回物品类别（来自 Meta["category"]），不存在时返回空串。
func (it *Item) Category() string {
	if it == nil || it.Meta == nil {
		return ""
	}
	if s, ok := it.Meta[MetaCategory].(string); ok {
		return s
	}
	return ""
}

// MetaCategory 是 Item.Meta 中类别字段的 key。
const MetaCategory = "category"

// SortItems 按分数降序排序，分数相同按 ID 升序，保证输出确定。
// nil 元素排在末尾。
func SortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})
}

// ItemIDs 提取物品 ID 列表（保持顺序，跳过 nil）。
func ItemIDs(items []*Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}

// SortItemsByID 按 ID 升序排序，nil 元素排在末尾。
func SortItemsByID(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.ID < b.ID
	})
}
