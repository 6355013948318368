package model

import (
	"github.com/rushteam/resonance/feature"
)

// ContentSimilarity 是物品 × 物品的内容相似度矩阵。
// 对称，取值 [0,1]，对角线为 1；任一物品文本为空时与其他物品的相似度为 0。
type ContentSimilarity struct {
	ids   []int64
	index map[int64]int
	sims  triangle
	vocab int
}

// BuildContentSimilarity 对 texts 做 TF-IDF 后两两计算余弦相似度。
// ids 与 texts 一一对应，ids 不能重复。
func BuildContentSimilarity(ids []int64, texts []string, maxFeatures int) *ContentSimilarity {
	vectorizer := feature.NewTFIDF(maxFeatures)
	vecs := vectorizer.FitTransform(texts)

	c := &ContentSimilarity{
		ids:   append([]int64(nil), ids...),
		index: make(map[int64]int, len(ids)),
		sims:  newTriangle(len(ids)),
		vocab: len(vectorizer.Vocabulary()),
	}
	for i, id := range ids {
		c.index[id] = i
	}
	for i := range vecs {
		for j := i + 1; j < len(vecs); j++ {
			c.sims.set(i, j, feature.Cosine(vecs[i], vecs[j]))
		}
	}
	return c
}

// Len 返回物品数。
func (c *ContentSimilarity) Len() int { return len(c.ids) }

// VocabularySize 返回实际使用的词表大小。
func (c *ContentSimilarity) VocabularySize() int { return c.vocab }

// IDs 返回按构建顺序排列的物品 ID。
func (c *ContentSimilarity) IDs() []int64 { return append([]int64(nil), c.ids...) }

// Has 判断物品是否在索引中。
func (c *ContentSimilarity) Has(id int64) bool {
	_, ok := c.index[id]
	return ok
}

// Similarity 返回两个物品的相似度，索引外的物品返回 0。
func (c *ContentSimilarity) Similarity(a, b int64) float64 {
	i, ok := c.index[a]
	if !ok {
		return 0
	}
	j, ok := c.index[b]
	if !ok {
		return 0
	}
	return c.sims.at(i, j)
}

// Scores 对每个物品累加它与 sources 中各物品的相似度。
// sources 中不在索引内的物品贡献为 0；累加按 sources 的顺序进行。
func (c *ContentSimilarity) Scores(sources []int64) map[int64]float64 {
	out := make(map[int64]float64, len(c.ids))
	for _, src := range sources {
		i, ok := c.index[src]
		if !ok {
			continue
		}
		for j, id := range c.ids {
			if s := c.sims.at(i, j); s != 0 {
				out[id] += s
			}
		}
	}
	return out
}
