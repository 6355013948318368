package feature

import (
	"math"
	"sort"
)

// Entry 是稀疏向量的一个非零分量。
type Entry struct {
	Index int
	Value float64
}

// Vector 是按 Index 升序排列的稀疏向量。
type Vector []Entry

// NewVector 从 index->value 构建向量，忽略零值。
func NewVector(m map[int]float64) Vector {
	v := make(Vector, 0, len(m))
	for i, x := range m {
		if x != 0 {
			v = append(v, Entry{Index: i, Value: x})
		}
	}
	sort.Slice(v, func(a, b int) bool { return v[a].Index < v[b].Index })
	return v
}

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var s float64
	for _, e := range v {
		s += e.Value * e.Value
	}
	return math.Sqrt(s)
}

// Normalize 返回 L2 归一化后的副本；零向量原样返回。
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	out := make(Vector, len(v))
	for i, e := range v {
		out[i] = Entry{Index: e.Index, Value: e.Value / n}
	}
	return out
}

// Dot 计算两个稀疏向量的内积。
func Dot(a, b Vector) float64 {
	var s float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Index == b[j].Index:
			s += a[i].Value * b[j].Value
			i++
			j++
		case a[i].Index < b[j].Index:
			i++
		default:
			j++
		}
	}
	return s
}

// Cosine 计算余弦相似度，任一为零向量时返回 0。
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(Dot(a, b) / (na * nb))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
