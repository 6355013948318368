package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// 混合打分使用的特征名。
const (
	FeatureCollaborative = "collaborative"
	FeatureContent       = "content"
)

// LinearBlend 是特征的线性加权：score = Bias + Σ Weight_i × Feature_i。
// 缺失的特征按 0 计。
type LinearBlend struct {
	Bias    float64
	Weights map[string]float64
}

// NewHybridBlend 返回协同分与内容分的混合模型。
func NewHybridBlend(collaborative, content float64) *LinearBlend {
	return &LinearBlend{Weights: map[string]float64{
		FeatureCollaborative: collaborative,
		FeatureContent:       content,
	}}
}

// LoadLinearBlend 从 JSON 文件加载权重：{"bias": 0, "weights": {"collaborative": 0.6}}
func LoadLinearBlend(path string) (*LinearBlend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode %s: %w", path, err)
	}
	return &LinearBlend{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LinearBlend) Name() string { return "linear_blend" }

// Predict 按特征名排序后累加，保证浮点结果与 map 遍历顺序无关。
func (m *LinearBlend) Predict(features map[string]float64) (float64, error) {
	names := make([]string, 0, len(m.Weights))
	for k := range m.Weights {
		names = append(names, k)
	}
	sort.Strings(names)

	score := m.Bias
	for _, k := range names {
		score += m.Weights[k] * features[k]
	}
	return score, nil
}
