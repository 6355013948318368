// Package builders 注册内置的可配置 Node。召回阶段依赖快照，由 engine 直接组装，不在此注册。
package builders

import (
	"fmt"

	"github.com/rushteam/resonance/config"
	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/filter"
	"github.com/rushteam/resonance/model"
	"github.com/rushteam/resonance/pipeline"
	"github.com/rushteam/resonance/pkg/conv"
	"github.com/rushteam/resonance/rank"
	"github.com/rushteam/resonance/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("rank.model", BuildModelNode)
	config.Register("rerank.category_boost", BuildCategoryBoostNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "interacted":
			filters = append(filters, &filter.InteractedFilter{})
		case "category":
			filters = append(filters, &filter.CategoryFilter{Category: conv.ConfigGet(filterMap, "category", "")})
		case "blacklist":
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["item_ids"]), nil, ""))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildHybridNode(cfg map[string]any) (pipeline.Node, error) {
	d := core.DefaultEngineConfig()
	return rank.NewHybridNode(
		conv.ConfigGetFloat64(cfg, "collaborative_weight", d.CollaborativeWeight),
		conv.ConfigGetFloat64(cfg, "content_weight", d.ContentWeight),
	), nil
}

// BuildModelNode 从 JSON 文件加载线性融合权重。
func BuildModelNode(cfg map[string]any) (pipeline.Node, error) {
	path := conv.ConfigGet(cfg, "model_path", "")
	if path == "" {
		return nil, fmt.Errorf("model_path not found")
	}
	m, err := model.LoadLinearBlend(path)
	if err != nil {
		return nil, err
	}
	return &rank.ModelNode{Model: m}, nil
}

func BuildCategoryBoostNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.CategoryBoost{
		TopN:   int(conv.ConfigGetInt64(cfg, "top_n", int64(core.DefaultEngineConfig().BoostTopCategories))),
		Factor: conv.ConfigGetFloat64(cfg, "factor", core.DefaultEngineConfig().BoostFactor),
	}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
