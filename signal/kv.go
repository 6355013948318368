// Package signal 实现 core.SignalStore：交互表、物品表与帖子表的读写适配器。
//
// 两种后端：
//   - KVStore：基于 core.Store（MemoryStore / RedisStore），每张表一个 JSON key
//   - SQLStore：基于 GORM（SQLite / PostgreSQL），每张表一个数据表
package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/resonance/core"
)

// KVStore 是基于 core.Store 的信号存储适配器。
//
// Key 约定：
//   - 交互表：{KeyPrefix}:interactions:{kind}
//   - 物品表：{KeyPrefix}:items
//   - 帖子表：{KeyPrefix}:posts
//
// 写入是读-改-写，同一进程内由互斥锁串行化；多进程并发写同一张表不受支持。
type KVStore struct {
	store     core.Store
	KeyPrefix string

	mu sync.Mutex
}

// NewKVStore 创建 KV 信号存储，keyPrefix 为空时使用 "resonance"。
func NewKVStore(s core.Store, keyPrefix string) *KVStore {
	if keyPrefix == "" {
		keyPrefix = "resonance"
	}
	return &KVStore{store: s, KeyPrefix: keyPrefix}
}

func (a *KVStore) Name() string { return "kv:" + a.store.Name() }

func (a *KVStore) interactionsKey(kind core.InteractionKind) string {
	return a.KeyPrefix + ":interactions:" + string(kind)
}

func (a *KVStore) itemsKey() string { return a.KeyPrefix + ":items" }
func (a *KVStore) postsKey() string { return a.KeyPrefix + ":posts" }

// LoadInteractions 读取交互表；key 不存在视为空表。
func (a *KVStore) LoadInteractions(ctx context.Context, kind core.InteractionKind) ([]core.Interaction, error) {
	var out []core.Interaction
	found, err := a.load(ctx, a.interactionsKey(kind), &out)
	if err != nil {
		return nil, fmt.Errorf("signal: load %s interactions: %w", kind, err)
	}
	if !found {
		return []core.Interaction{}, nil
	}
	return out, nil
}

// LoadItems 读取物品表；key 不存在返回 core.ErrCatalogMissing。
func (a *KVStore) LoadItems(ctx context.Context) ([]core.EnrichedItem, error) {
	var out []core.EnrichedItem
	found, err := a.load(ctx, a.itemsKey(), &out)
	if err != nil {
		return nil, fmt.Errorf("signal: load items: %w", err)
	}
	if !found {
		return nil, core.ErrCatalogMissing
	}
	return out, nil
}

func (a *KVStore) LoadPosts(ctx context.Context) ([]core.Post, error) {
	var out []core.Post
	if _, err := a.load(ctx, a.postsKey(), &out); err != nil {
		return nil, fmt.Errorf("signal: load posts: %w", err)
	}
	return out, nil
}

func (a *KVStore) SaveInteractions(ctx context.Context, kind core.InteractionKind, records []core.Interaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var existing []core.Interaction
	key := a.interactionsKey(kind)
	if _, err := a.load(ctx, key, &existing); err != nil {
		return fmt.Errorf("signal: save %s interactions: %w", kind, err)
	}
	merged := mergeInteractions(existing, records)
	return a.save(ctx, key, merged)
}

func (a *KVStore) SaveItems(ctx context.Context, items []core.EnrichedItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var existing []core.EnrichedItem
	if _, err := a.load(ctx, a.itemsKey(), &existing); err != nil {
		return fmt.Errorf("signal: save items: %w", err)
	}
	merged := upsertBy(existing, items, func(it core.EnrichedItem) int64 { return it.PostID })
	return a.save(ctx, a.itemsKey(), merged)
}

func (a *KVStore) SavePosts(ctx context.Context, posts []core.Post) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var existing []core.Post
	if _, err := a.load(ctx, a.postsKey(), &existing); err != nil {
		return fmt.Errorf("signal: save posts: %w", err)
	}
	merged := upsertBy(existing, posts, func(p core.Post) int64 { return p.ID })
	return a.save(ctx, a.postsKey(), merged)
}

func (a *KVStore) load(ctx context.Context, key string, out any) (bool, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (a *KVStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("signal: encode %s: %w", key, err)
	}
	if err := a.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("signal: write %s: %w", key, err)
	}
	return nil
}

// mergeInteractions 按记录 ID 覆盖，ID 为 0 的记录直接追加。
func mergeInteractions(existing, incoming []core.Interaction) []core.Interaction {
	pos := make(map[int64]int, len(existing))
	out := make([]core.Interaction, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if r.ID != 0 {
			pos[r.ID] = len(out)
		}
		out = append(out, r)
	}
	for _, r := range incoming {
		if r.ID != 0 {
			if i, ok := pos[r.ID]; ok {
				out[i] = r
				continue
			}
			pos[r.ID] = len(out)
		}
		out = append(out, r)
	}
	return out
}

// upsertBy 按 key 覆盖旧记录，结果按 key 升序。
func upsertBy[T any](existing, incoming []T, key func(T) int64) []T {
	byID := make(map[int64]T, len(existing)+len(incoming))
	for _, r := range existing {
		byID[key(r)] = r
	}
	for _, r := range incoming {
		byID[key(r)] = r
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

var _ core.SignalStore = (*KVStore)(nil)
