package group

import "sort"

// matchGraph is an undirected graph over image indices. Edges are stored
// symmetrically in adjacency sets.
type matchGraph struct {
	n   int
	adj []map[int]struct{}
}

func newMatchGraph(n int) *matchGraph {
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	return &matchGraph{n: n, adj: adj}
}

func (g *matchGraph) addEdge(i, j int) {
	if i == j || i < 0 || j < 0 || i >= g.n || j >= g.n {
		return
	}
	g.adj[i][j] = struct{}{}
	g.adj[j][i] = struct{}{}
}

func (g *matchGraph) degree(i int) int {
	return len(g.adj[i])
}

// components extracts connected components by iterative breadth-first
// traversal. Components are returned in order of their lowest member, with
// members sorted ascending, so the partition is deterministic.
func (g *matchGraph) components() [][]int {
	visited := make([]bool, g.n)
	var comps [][]int

	for start := 0; start < g.n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		comp := []int{start}
		queue := []int{start}

		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for next := range g.adj[node] {
				if !visited[next] {
					visited[next] = true
					comp = append(comp, next)
					queue = append(queue, next)
				}
			}
		}

		sort.Ints(comp)
		comps = append(comps, comp)
	}

	return comps
}
