// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// bfEdge is one constraint xi - xj <~ value of the Bellman-Ford graph.
type bfEdge struct {
	i, j  int32
	value dbm.Raw
}

// bellmanford is the naive checker: single-source relaxation for up to
// dim rounds, then a final pass detecting residual relaxation (a
// negative cycle). O(V*E) worst case; kept as the reference for
// checking the Tarjan reducer.
type bellmanford struct {
	dim   int32
	count int32
	dist  []distance
	edges []bfEdge
}

func newBellmanford(dim int32) *bellmanford {
	return &bellmanford{
		dim:   dim,
		dist:  make([]distance, dim),
		edges: make([]bfEdge, dim*dim),
	}
}

func (g *bellmanford) push(i, j int32, value dbm.Raw) {
	g.edges[g.count] = bfEdge{i: i, j: j, value: value}
	g.count++
}

func (g *bellmanford) pop(int32) {
	g.count--
}

func (g *bellmanford) consistent() bool {
	v := g.dim
	found := false
	for {
		found = false
		for e := int32(0); e < g.count; e++ {
			sum := distAdd(g.dist[g.edges[e].i], g.edges[e].value)
			if distLess(sum, g.dist[g.edges[e].j]) {
				g.dist[g.edges[e].j] = sum
				found = true
			}
		}
		v--
		if v == 0 || !found {
			break
		}
	}
	if found {
		for e := int32(0); e < g.count; e++ {
			if distLess(distAdd(g.dist[g.edges[e].i], g.edges[e].value), g.dist[g.edges[e].j]) {
				return false
			}
		}
	}
	return true
}
