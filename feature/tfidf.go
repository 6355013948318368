// Package feature 提供物品文本的向量化：分词、停用词、TF-IDF 与稀疏向量运算。
package feature

import (
	"math"
	"sort"
)

// DefaultMaxFeatures 是 TF-IDF 词表的默认上限。
const DefaultMaxFeatures = 5000

// TFIDF 是 TF-IDF 向量化器。
//
// 规则：
//   - 分词见 Tokenize，去除英文停用词
//   - 词表按文档频率降序取前 MaxFeatures 个，频率相同按字典序
//   - tf 为原始词频，idf = ln((1+n)/(1+df)) + 1
//   - 输出向量做 L2 归一化；空文档得到零向量
//
// Fit 之后只读，可并发调用 Transform。
type TFIDF struct {
	MaxFeatures int

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewTFIDF 创建向量化器，maxFeatures <= 0 时使用 DefaultMaxFeatures。
func NewTFIDF(maxFeatures int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDF{MaxFeatures: maxFeatures}
}

// Analyze 返回文档去除停用词后的词序列。
func Analyze(doc string) []string {
	tokens := Tokenize(doc)
	out := tokens[:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}

// Fit 在语料上统计文档频率并确定词表与 idf。
func (t *TFIDF) Fit(docs []string) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, w := range Analyze(doc) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			df[w]++
		}
	}

	terms := make([]string, 0, len(df))
	for w := range df {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > t.MaxFeatures {
		terms = terms[:t.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	t.terms = terms
	t.vocab = make(map[string]int, len(terms))
	t.idf = make([]float64, len(terms))
	for i, w := range terms {
		t.vocab[w] = i
		t.idf[i] = math.Log((1+n)/(1+float64(df[w]))) + 1
	}
}

// Transform 把单个文档转成归一化的 TF-IDF 向量，词表外的词忽略。
func (t *TFIDF) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, w := range Analyze(doc) {
		if i, ok := t.vocab[w]; ok {
			counts[i]++
		}
	}
	for i, c := range counts {
		counts[i] = c * t.idf[i]
	}
	return NewVector(counts).Normalize()
}

// FitTransform 依次执行 Fit 与 Transform。
func (t *TFIDF) FitTransform(docs []string) []Vector {
	t.Fit(docs)
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = t.Transform(doc)
	}
	return out
}

// Vocabulary 返回词表（字典序）。
func (t *TFIDF) Vocabulary() []string {
	return append([]string(nil), t.terms...)
}
