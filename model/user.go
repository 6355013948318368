package model

import (
	"sort"

	"github.com/rushteam/resonance/feature"
)

// Neighbor 是一个相似用户。
type Neighbor struct {
	UserID     int64
	Similarity float64
}

// UserSimilarity 是用户 × 用户的余弦相似度，行索引与 InteractionMatrix 一致。
// 对称，取值 [0,1]；全零行与任何其他用户的相似度为 0。
type UserSimilarity struct {
	users []int64
	index map[int64]int
	sims  triangle
}

// BuildUserSimilarity 两两计算交互矩阵行向量的余弦相似度。
func BuildUserSimilarity(m *InteractionMatrix) *UserSimilarity {
	s := &UserSimilarity{
		users: m.Users(),
		index: make(map[int64]int, len(m.users)),
		sims:  newTriangle(len(m.users)),
	}
	for i, u := range s.users {
		s.index[u] = i
	}
	for i := range s.users {
		for j := i + 1; j < len(s.users); j++ {
			s.sims.set(i, j, feature.Cosine(m.row(i), m.row(j)))
		}
	}
	return s
}

// Len 返回用户数。
func (s *UserSimilarity) Len() int { return len(s.users) }

// Similarity 返回两个用户的相似度；任一不在索引中返回 0，自身为 1。
func (s *UserSimilarity) Similarity(a, b int64) float64 {
	i, ok := s.index[a]
	if !ok {
		return 0
	}
	j, ok := s.index[b]
	if !ok {
		return 0
	}
	return s.sims.at(i, j)
}

// Neighbors 返回与 userID 最相似的 n 个其他用户，
// 按相似度降序，相同相似度按用户 ID 升序。自身总是被剔除。
func (s *UserSimilarity) Neighbors(userID int64, n int) []Neighbor {
	i, ok := s.index[userID]
	if !ok || n <= 0 {
		return nil
	}
	out := make([]Neighbor, 0, len(s.users))
	for j, u := range s.users {
		if j == i {
			continue
		}
		out = append(out, Neighbor{UserID: u, Similarity: s.sims.at(i, j)})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Similarity != out[b].Similarity {
			return out[a].Similarity > out[b].Similarity
		}
		return out[a].UserID < out[b].UserID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
