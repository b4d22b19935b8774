// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

// ref increments the saturating reference counter of a node. Counters
// that reach the maximum stick there and the node is never collected.
func (s *Session) ref(n Node) Node {
	nd := &s.nodes[n.id()]
	if nd.ref != _MAXREF {
		nd.ref++
	}
	return n
}

// deref decrements the counter of the node itself, leaving the counts
// of its children untouched. Used to hand back a result that stays
// resurrectable through the unique table.
func (s *Session) deref(n Node) {
	nd := &s.nodes[n.id()]
	if nd.ref != _MAXREF {
		nd.ref--
	}
}

// RecDeref drops an external reference. When a counter hits zero the
// node becomes dead (but not free) and the references it holds on its
// children are released in turn. The traversal uses an explicit stack;
// diagrams can be deep.
func (s *Session) RecDeref(n Node) {
	stack := []Node{n.rglr()}
	for len(stack) > 0 {
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &s.nodes[n.id()]
		if nd.ref == 0 {
			s.seterror(ErrDeref)
			return
		}
		if nd.ref != _MAXREF {
			nd.ref--
		}
		if nd.ref == 0 {
			man := s.manager(nd.man)
			man.usedcnt--
			man.deadcnt++
			man.subtables[nd.level].deadcnt++
			if nd.elem != nil {
				for _, e := range nd.elem {
					stack = append(stack, e.Child.rglr())
				}
			} else {
				stack = append(stack, nd.low.rglr(), nd.high.rglr())
			}
		}
	}
}

// Ref adds an external reference to a node and returns it, so calls can
// be chained. Terminals are pinned and unaffected.
func (s *Session) Ref(n Node) Node { return s.ref(n) }

// reclaim resurrects a dead node found through the unique table or an
// operation cache: the counters of the whole dead subgraph are
// restored by re-incrementing the references on every child, descending
// through children that were themselves dead. The count of the node
// itself is not touched.
func (s *Session) reclaim(n Node) {
	stack := []Node{n.rglr()}
	for len(stack) > 0 {
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &s.nodes[n.id()]
		man := s.manager(nd.man)
		man.usedcnt++
		man.deadcnt--
		man.subtables[nd.level].deadcnt--
		if nd.elem != nil {
			for _, e := range nd.elem {
				if s.nodes[e.Child.id()].ref == 0 {
					stack = append(stack, e.Child.rglr())
				}
				s.ref(e.Child)
			}
		} else {
			if s.nodes[nd.low.id()].ref == 0 {
				stack = append(stack, nd.low.rglr())
			}
			if s.nodes[nd.high.id()].ref == 0 {
				stack = append(stack, nd.high.rglr())
			}
			s.ref(nd.low)
			s.ref(nd.high)
		}
	}
}

// retain and release wrap the reference discipline of the operations:
// every intermediate diagram is retained across calls that may
// allocate, and released once it has been folded into the result.

func (s *Session) retain(n Node) Node { return s.ref(n) }

func (s *Session) release(n Node) { s.RecDeref(n) }

// mark recursively flags the nodes of a diagram, skipping terminals and
// nodes already marked.
func (s *Session) mark(n Node) {
	if s.isTerminal(n) || s.ismarked(n) {
		return
	}
	s.marknode(n)
	nd := &s.nodes[n.id()]
	if nd.elem != nil {
		for _, e := range nd.elem {
			s.mark(e.Child)
		}
	} else {
		s.mark(nd.low)
		s.mark(nd.high)
	}
}

// markcount marks like mark, counting newly marked nodes.
func (s *Session) markcount(n Node, cnt *int32) {
	if s.isTerminal(n) || s.ismarked(n) {
		return
	}
	*cnt++
	s.marknode(n)
	nd := &s.nodes[n.id()]
	if nd.elem != nil {
		for _, e := range nd.elem {
			s.markcount(e.Child, cnt)
		}
	} else {
		s.markcount(nd.low, cnt)
		s.markcount(nd.high, cnt)
	}
}

// markedgecount marks like mark, counting traversed edges.
func (s *Session) markedgecount(n Node, cnt *int32) {
	if s.isTerminal(n) || s.ismarked(n) {
		return
	}
	s.marknode(n)
	nd := &s.nodes[n.id()]
	if nd.elem != nil {
		for _, e := range nd.elem {
			*cnt++
			s.markedgecount(e.Child, cnt)
		}
	} else {
		*cnt += 2
		s.markedgecount(nd.low, cnt)
		s.markedgecount(nd.high, cnt)
	}
}

// unmark clears the marks left by mark. It does not recurse into
// unmarked nodes, so it must see the same reachable set.
func (s *Session) unmark(n Node) {
	if s.isTFTerminal(n) {
		return
	}
	if !s.ismarked(n) {
		return
	}
	s.resetmark(n)
	if s.isExtraTerminal(n) {
		return
	}
	nd := &s.nodes[n.id()]
	if nd.elem != nil {
		for _, e := range nd.elem {
			s.unmark(e.Child)
		}
	} else {
		s.unmark(nd.low)
		s.unmark(nd.high)
	}
}

// forceUnmark clears marks recursing through nodes that are not marked,
// which repairs a partially marked diagram at the price of revisiting
// shared subgraphs.
func (s *Session) forceUnmark(n Node) {
	if s.isTFTerminal(n) {
		return
	}
	s.resetmark(n)
	if s.isExtraTerminal(n) {
		return
	}
	nd := &s.nodes[n.id()]
	if nd.elem != nil {
		for _, e := range nd.elem {
			s.forceUnmark(e.Child)
		}
	} else {
		s.forceUnmark(nd.low)
		s.forceUnmark(nd.high)
	}
}
