package filter

import (
	"context"

	"github.com/rushteam/resonance/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉永不推荐的物品。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单
	ItemIDs []int64

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	ids map[int64]struct{}
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单物品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器，storeAdapter 可为 nil。
func NewBlacklistFilter(itemIDs []int64, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{
		ItemIDs: itemIDs,
		Key:     key,
		ids:     make(map[int64]struct{}, len(itemIDs)),
	}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	for _, id := range itemIDs {
		f.ids[id] = struct{}{}
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.ids != nil {
		if _, ok := f.ids[item.ID]; ok {
			return true, nil
		}
	} else {
		for _, id := range f.ItemIDs {
			if item.ID == id {
				return true, nil
			}
		}
	}

	if f.Store != nil && f.Key != "" {
		blacklist, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, id := range blacklist {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
