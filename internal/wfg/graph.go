// Package wfg implements the wait-for graph used for deadlock
// detection (spec §4.3): a directed graph over transaction ids whose
// cycles identify deadlocked transactions.
package wfg

import "sort"

// Graph is an adjacency-list wait-for graph indexed by transaction id.
type Graph struct {
	edges map[int]map[int]struct{}
}

// New creates an empty wait-for graph.
func New() *Graph {
	return &Graph{edges: make(map[int]map[int]struct{})}
}

// AddEdges records src -> t for every t in targets, skipping the
// self-loop src == t. Duplicate edges are tolerated.
func (g *Graph) AddEdges(src int, targets []int) {
	for _, dst := range targets {
		if dst == src {
			continue
		}
		if g.edges[src] == nil {
			g.edges[src] = make(map[int]struct{})
		}
		g.edges[src][dst] = struct{}{}
	}
}

// RemoveSource clears every edge touching txn, in either direction.
func (g *Graph) RemoveSource(txn int) {
	delete(g.edges, txn)
	for src, dsts := range g.edges {
		delete(dsts, txn)
		if len(dsts) == 0 {
			delete(g.edges, src)
		}
	}
}

// DetectCycle runs a recursive DFS over roots in ascending id order
// and returns the set of transaction ids on the first back-edge cycle
// found, or nil if the graph is acyclic. Deterministic across calls
// for the same edge set (spec §4.3).
func (g *Graph) DetectCycle() []int {
	roots := make([]int, 0, len(g.edges))
	for src := range g.edges {
		roots = append(roots, src)
	}
	sort.Ints(roots)

	visited := make(map[int]bool)
	onPath := make(map[int]bool)
	var path []int

	var visit func(int) []int
	visit = func(u int) []int {
		visited[u] = true
		onPath[u] = true
		path = append(path, u)

		neighbors := make([]int, 0, len(g.edges[u]))
		for v := range g.edges[u] {
			neighbors = append(neighbors, v)
		}
		sort.Ints(neighbors)

		for _, v := range neighbors {
			if onPath[v] {
				// back edge u -> v: pop path down to and including v.
				idx := indexOf(path, v)
				cycle := append([]int(nil), path[idx:]...)
				sort.Ints(cycle)
				return cycle
			}
			if !visited[v] {
				if cycle := visit(v); cycle != nil {
					return cycle
				}
			}
		}

		onPath[u] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, root := range roots {
		if visited[root] {
			continue
		}
		if cycle := visit(root); cycle != nil {
			return cycle
		}
	}
	return nil
}

func indexOf(path []int, v int) int {
	for i, x := range path {
		if x == v {
			return i
		}
	}
	return -1
}
