// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// cluster is one group of near-duplicate candidates. rep is the index of the
// representative: the earliest member in generation order, which is the one
// that survives into the ranked pool.
type cluster struct {
	rep     int
	members []int
}

// clusterDuplicates groups candidates whose fingerprints the matcher deems
// equivalent, using union-find over all pairs. Clusters come back ordered by
// representative index, so the output is deterministic for a fixed input
// order.
func clusterDuplicates(m crystal.Matcher, structures []*types.Structure, fingerprints [][]float64) []cluster {
	uf := newUnionFind(len(structures))
	for i := 0; i < len(structures); i++ {
		for j := i + 1; j < len(structures); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if m.Equivalent(structures[i], structures[j], fingerprints[i], fingerprints[j]) {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int]int)
	var out []cluster
	for i := range structures {
		root := uf.find(i)
		ci, ok := byRoot[root]
		if !ok {
			ci = len(out)
			byRoot[root] = ci
			out = append(out, cluster{rep: i})
		}
		out[ci].members = append(out[ci].members, i)
	}
	return out
}

// unionFind is a disjoint-set forest over candidate indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
