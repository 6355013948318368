// Package model 构建推荐快照中的三个相似度模型，并提供排序阶段的打分模型。
//
//   - ContentSimilarity：物品文本 TF-IDF 余弦相似度
//   - InteractionMatrix：四类交互加权后的用户 × 物品矩阵
//   - UserSimilarity：交互矩阵行向量之间的余弦相似度
//   - Snapshot：以上三者与预处理数据的不可变组合
package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}
