package core

import (
	"sort"
	"time"
)

// UserProfile 是单次推荐请求的用户画像。
//
// 一句话定义：用户画像 = Ranker 从快照中为某个用户提取的"已交互集合 + 类别偏好"
//
// 它不是某一个 Node，而是：
//   - 被所有 Node 共享（通过 RecommendContext.User）
//   - 驱动 Filter（已交互剔除）与 ReRank（偏好类别加权）
//
// 设计要点：
//
//	维度          作用
//	已交互物品    硬过滤（不推荐看过的）
//	类别计数      偏好加权（Top 类别 boost）
type UserProfile struct {
	UserID int64

	// Interacted 是用户在四类交互表中出现过的物品集合（并集）
	Interacted map[int64]struct{}

	// 兴趣画像：key 为类别，value 为该类别下已交互物品的数量
	Interests map[string]float64

	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		Interacted: make(map[int64]struct{}),
		Interests:  make(map[string]float64),
		UpdateTime: time.Now(),
	}
}

// AddInteracted 记录一个已交互物品。
func (p *UserProfile) AddInteracted(itemID int64) {
	if p.Interacted == nil {
		p.Interacted = make(map[int64]struct{})
	}
	p.Interacted[itemID] = struct{}{}
}

// HasInteracted 检查用户是否交互过该物品。
func (p *UserProfile) HasInteracted(itemID int64) bool {
	if p == nil || p.Interacted == nil {
		return false
	}
	_, ok := p.Interacted[itemID]
	return ok
}

// UpdateInterest 累加类别兴趣。
func (p *UserProfile) UpdateInterest(category string, delta float64) {
	if p.Interests == nil {
		p.Interests = make(map[string]float64)
	}
	p.Interests[category] += delta
	p.UpdateTime = time.Now()
}

// GetInterestWeight 获取兴趣权重。
func (p *UserProfile) GetInterestWeight(category string) float64 {
	if p.Interests == nil {
		return 0
	}
	return p.Interests[category]
}

// TopInterests 返回权重最高的 n 个类别。
// 权重相同按类别名字典序升序，保证结果确定。
func (p *UserProfile) TopInterests(n int) []string {
	if p == nil || len(p.Interests) == 0 || n <= 0 {
		return nil
	}
	cats := make([]string, 0, len(p.Interests))
	for c := range p.Interests {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := p.Interests[cats[i]], p.Interests[cats[j]]
		if wi != wj {
			return wi > wj
		}
		return cats[i] < cats[j]
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}
