package utils

import "strings"

// Label 记录一个物品在排序链路中经过的环节，便于解释最终排序。
// 例如 recall=u2i|content，boost=category。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，
// 已存在的值不重复追加。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, "|"),
		Source: appendUnique(existing.Source, incoming.Source, ","),
	}
}

func appendUnique(list, v, sep string) string {
	if list == "" {
		return v
	}
	if v == "" {
		return list
	}
	for _, p := range strings.Split(list, sep) {
		if p == v {
			return list
		}
	}
	return list + sep + v
}
