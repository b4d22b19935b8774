// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// The reducers answer one query: does the set of clock-difference edges
// accepted along the current path admit an assignment, i.e. is the
// constraint graph free of negative cycles? Push and pop maintain the
// edge set in LIFO order while the diagram is walked.
//
// Distances cannot be plain raw bounds: a cycle summing to (<, 0) and
// one summing to (<=, 0) are indistinguishable in raw arithmetic, and
// only the first is inconsistent. The (value, strictness) pair keeps
// them apart.

// distance measures a path: the sum of the integer limits and the
// number of strict bounds along it, ordered lexicographically by
// (value, -strictness).
type distance struct {
	value      int32
	strictness int32
}

func distAdd(i distance, e dbm.Raw) distance {
	i.value += dbm.Bound(e)
	if dbm.IsStrict(e) {
		i.strictness++
	}
	return i
}

func distLess(i, j distance) bool {
	return i.value < j.value || (i.value == j.value && i.strictness > j.strictness)
}

// edge of the constraint graph: target vertex and bound.
type tarjanEdge struct {
	v     int32
	value dbm.Raw
}

// listNode is one cell of an array-encoded doubly-linked list.
type listNode struct {
	next int32
	prev int32
}

// tarjan is Bellman-Ford with FIFO vertex ordering and Tarjan's subtree
// disassembly. The distance vector persists between consistency checks,
// making the algorithm incremental as edges are pushed and popped.
type tarjan struct {
	dim    int32
	count  []int32 // outgoing edge count per vertex
	dist   []distance
	edges  []tarjanEdge // dim*(dim-1) slots, dim-1 per vertex
	fifo   []listNode   // queue; element dim is the sentinel
	queued []bool       // queue membership
}

func newTarjan(dim int32) *tarjan {
	g := &tarjan{
		dim:    dim,
		count:  make([]int32, dim),
		dist:   make([]distance, dim),
		edges:  make([]tarjanEdge, dim*dim-dim),
		fifo:   make([]listNode, dim+1),
		queued: make([]bool, dim),
	}
	g.fifo[dim].prev = dim
	g.fifo[dim].next = dim
	return g
}

// listInsert places element after pos.
func listInsert(list []listNode, pos, element int32) {
	succ := list[pos].next
	list[succ].prev = element
	list[element].next = succ
	list[element].prev = pos
	list[pos].next = element
}

// listRemove unlinks pos.
func listRemove(list []listNode, pos int32) {
	next := list[pos].next
	prev := list[pos].prev
	list[prev].next = next
	list[next].prev = prev
}

// push adds the edge i -> j with the given bound. Adding a second edge
// between the same ordered pair is not allowed.
func (g *tarjan) push(i, j int32, value dbm.Raw) {
	count := g.count[i]
	g.count[i]++
	idx := i*g.dim - i + count
	g.edges[idx].v = j
	g.edges[idx].value = value

	// Queue i if following the new edge improves the best distance.
	if !g.queued[i] && distLess(distAdd(g.dist[i], value), g.dist[j]) {
		g.queued[i] = true
		listInsert(g.fifo, g.fifo[g.dim].prev, i)
	}
}

// pop removes the most recently pushed outgoing edge of i.
func (g *tarjan) pop(i int32) {
	g.count[i]--
}

// disassemble traverses the subtree rooted at root in preorder. If node
// is found inside, true is returned and the tree is left untouched past
// that point; otherwise every descendant is unlinked from the tree and
// from the queue, and false is returned.
func (g *tarjan) disassemble(root, node int32, preorder []listNode, depth []int32) bool {
	terminal := g.dim
	rootDepth := depth[root]
	current := preorder[root].next
	for depth[current] > rootDepth {
		if current == node {
			return true
		}
		if g.queued[current] {
			g.queued[current] = false
			listRemove(g.fifo, current)
		}
		tmp := preorder[current].next
		preorder[current].prev = terminal
		preorder[current].next = terminal
		depth[current] = 0
		current = tmp
	}
	preorder[root].next = current
	preorder[current].prev = root
	return false
}

// link makes child a child of parent; the child must be a leaf.
func link(parent, child int32, preorder []listNode, depth []int32) {
	listRemove(preorder, child)
	depth[child] = depth[parent] + 1
	listInsert(preorder, parent, child)
}

// populateQueue rebuilds the scan queue from scratch: every vertex with
// an improving outgoing edge is enqueued. Needed after a disassembly
// removed vertices that still had work pending.
func (g *tarjan) populateQueue() {
	dim := g.dim
	for u := int32(0); u < dim; u++ {
		g.queued[u] = false
	}
	g.fifo[dim].prev = dim
	g.fifo[dim].next = dim
	for u := int32(0); u < dim; u++ {
		base := u*dim - u
		for k := int32(0); k < g.count[u]; k++ {
			e := g.edges[base+k]
			if distLess(distAdd(g.dist[u], e.value), g.dist[e.v]) {
				listInsert(g.fifo, g.fifo[dim].prev, u)
				g.queued[u] = true
				break
			}
		}
	}
}

// consistent runs the relaxation and reports whether the constraint
// graph admits an assignment.
func (g *tarjan) consistent() bool {
	dim := g.dim

	// Spanning tree of shortest paths; every vertex starts as a
	// singleton tree. The extra element is the terminator.
	depth := make([]int32, dim+1)
	preorder := make([]listNode, dim+1)
	for i := int32(0); i <= dim; i++ {
		preorder[i].prev = dim
		preorder[i].next = dim
	}

	for u := g.fifo[dim].next; u != dim; u = g.fifo[dim].next {
		g.queued[u] = false
		listRemove(g.fifo, u)

		base := u*dim - u
		for k := int32(0); k < g.count[u]; k++ {
			e := g.edges[base+k]
			v := e.v
			sum := distAdd(g.dist[u], e.value)
			if distLess(sum, g.dist[v]) {
				g.dist[v] = sum

				// If u sits in the subtree rooted at v we found a
				// negative cycle. The disassembly broke the queue, so
				// repopulate it before reporting.
				if g.disassemble(v, u, preorder, depth) {
					g.populateQueue()
					return false
				}

				link(u, v, preorder, depth)

				if !g.queued[v] {
					g.queued[v] = true
					listInsert(g.fifo, g.fifo[dim].prev, v)
				}
			}
		}
	}

	return true
}
