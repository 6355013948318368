package model

// triangle 是按行压缩存储的严格上三角对称矩阵，对角线不存储。
type triangle struct {
	n    int
	data []float64
}

func newTriangle(n int) triangle {
	size := 0
	if n > 1 {
		size = n * (n - 1) / 2
	}
	return triangle{n: n, data: make([]float64, size)}
}

// offset 要求 i < j。
func (t triangle) offset(i, j int) int {
	return i*t.n - i*(i+1)/2 + (j - i - 1)
}

func (t triangle) set(i, j int, v float64) {
	if i > j {
		i, j = j, i
	}
	t.data[t.offset(i, j)] = v
}

// at 返回 (i, j) 的值，对角线视为 1。
func (t triangle) at(i, j int) float64 {
	switch {
	case i == j:
		return 1
	case i > j:
		i, j = j, i
	}
	return t.data[t.offset(i, j)]
}
