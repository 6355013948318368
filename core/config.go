package core

// EngineConfig 是推荐引擎的可调参数。
// 默认值与线上行为保持一致，修改任何一项都会改变排序结果。
type EngineConfig struct {
	// NeighborCount 协同过滤考虑的相似用户数（不含自己）
	NeighborCount int `yaml:"neighbor_count"`

	// CollaborativeWeight / ContentWeight 混合打分权重
	CollaborativeWeight float64 `yaml:"collaborative_weight"`
	ContentWeight       float64 `yaml:"content_weight"`

	// BoostFactor 偏好类别的分数乘数；BoostTopCategories 参与加权的类别数
	BoostFactor        float64 `yaml:"boost_factor"`
	BoostTopCategories int     `yaml:"boost_top_categories"`

	// MaxFeatures TF-IDF 词表上限（按文档频率取前 N）
	MaxFeatures int `yaml:"max_features"`

	// DefaultK 请求未指定 k（k <= 0）时返回的数量
	DefaultK int `yaml:"default_k"`

	// CandidateExpr 可选的 CEL 候选过滤表达式，为空则不启用
	CandidateExpr string `yaml:"candidate_expr"`

	// BlacklistIDs 永不推荐的物品
	BlacklistIDs []int64 `yaml:"blacklist_ids"`
}

// DefaultEngineConfig 返回默认的引擎配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		NeighborCount:       10,
		CollaborativeWeight: 0.6,
		ContentWeight:       0.4,
		BoostFactor:         1.2,
		BoostTopCategories:  3,
		MaxFeatures:         5000,
		DefaultK:            10,
	}
}

// WithDefaults 用默认值补齐未设置（零值）的字段。
func (c EngineConfig) WithDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.NeighborCount <= 0 {
		c.NeighborCount = d.NeighborCount
	}
	if c.CollaborativeWeight == 0 && c.ContentWeight == 0 {
		c.CollaborativeWeight = d.CollaborativeWeight
		c.ContentWeight = d.ContentWeight
	}
	if c.BoostFactor == 0 {
		c.BoostFactor = d.BoostFactor
	}
	if c.BoostTopCategories <= 0 {
		c.BoostTopCategories = d.BoostTopCategories
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = d.MaxFeatures
	}
	if c.DefaultK <= 0 {
		c.DefaultK = d.DefaultK
	}
	return c
}
