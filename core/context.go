package core

import "github.com/rushteam/resonance/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64

	// Category 是请求级类别过滤条件，空串表示不过滤（区分大小写的精确匹配）
	Category string

	// K 是期望返回的物品数量
	K int

	// User 是本次请求的用户画像（交互物品集合、类别偏好），由 Ranker 在进入 Pipeline 前填充
	User *UserProfile

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// HasInteracted 判断用户是否已交互过该物品。
func (rctx *RecommendContext) HasInteracted(itemID int64) bool {
	if rctx == nil || rctx.User == nil {
		return false
	}
	return rctx.User.HasInteracted(itemID)
}
