// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// consistencyGraph abstracts the two checkers behind the reduction
// drivers: Tarjan with subtree disassembly for production, Bellman-Ford
// for verification.
type consistencyGraph interface {
	push(i, j int32, value dbm.Raw)
	pop(i int32)
	consistent() bool
}

// reduceRec walks the diagram pushing the edge (clock1, clock2, upper)
// when descending into an interval and the mirrored lower-bound edge
// for the intervals to the right of it. Children on inconsistent paths
// are pruned; a node whose only consistent child is the last collapses
// to that child.
func (s *Session) reduceRec(node Node, graph consistencyGraph) Node {
	if s.isTerminal(node) {
		return node
	}

	info := s.info(node)
	if info.Type == TypeBDD {
		n := s.ref(s.reduceRec(s.bddLow(node), graph))
		m := s.makeBddNode(s.nodes[node.id()].level, n, s.reduceRec(s.bddHigh(node), graph))
		s.deref(n)
		return m
	}

	// Find the first consistent child. Lower bounds do not matter here:
	// every edge to the left of the current one is inconsistent.
	modified := false
	it := s.iter(node)
	graph.push(info.Clock1, info.Clock2, it.upper())
	for !graph.consistent() {
		modified = true
		graph.pop(info.Clock1)
		it.next()
		bnd := it.upper()
		if bnd == Inf {
			// All bounds but the last are inconsistent; the node has no
			// effect at all.
			return s.reduceRec(it.child(), graph)
		}
		graph.push(info.Clock1, info.Clock2, bnd)
	}

	m := s.reduceRec(it.child(), graph)
	mask := m.mask()
	s.ref(m)
	graph.pop(info.Clock1)
	modified = modified || m != it.child()

	// Repeat until the next inconsistent bound or the last one.
	top := s.reftop
	for it.next(); !it.atEnd(); it.next() {
		graph.push(info.Clock2, info.Clock1, dbm.L2U(it.lower()))
		if !graph.consistent() {
			modified = true
			graph.pop(info.Clock2)
			break
		}

		bnd := it.upper()
		var n Node
		if bnd < Inf {
			graph.push(info.Clock1, info.Clock2, bnd)
			n = s.reduceRec(it.child(), graph)
			graph.pop(info.Clock1)
		} else {
			n = s.reduceRec(it.child(), graph)
		}

		modified = modified || n != it.child()
		if m != n {
			s.pushRef(negCond(m, mask), it.lower())
			m = n
			s.ref(m)
		}
		graph.pop(info.Clock2)
	}
	s.pushRef(negCond(m, mask), Inf)

	var res Node
	if modified {
		res = negCond(s.makeCddNode(s.nodes[node.id()].level, s.refstack[top:s.reftop]), mask)
	} else {
		res = node
	}

	for s.reftop > top {
		s.reftop--
		s.deref(s.refstack[s.reftop].Child)
	}
	return res
}

func (s *Session) graphDim() int32 {
	if s.clocknum > 0 {
		return s.clocknum
	}
	return 1
}

// Reduce brings a diagram into reduced form: all inconsistent paths are
// eliminated, so a tautology collapses to the true terminal and an
// unsatisfiable diagram to the false terminal. The form is pseudo
// canonical only.
func (s *Session) Reduce(node Node) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	return s.reduceRec(node, newTarjan(s.graphDim()))
}

// BfReduce is Reduce running on the Bellman-Ford checker. It is slower
// and exists to cross-check the Tarjan reducer.
func (s *Session) BfReduce(node Node) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	return s.reduceRec(node, newBellmanford(s.graphDim()))
}

// ApplyReduce performs a binary operation and returns the result in
// reduced form, checking path consistency inline so that inconsistent
// children are never built.
func (s *Session) ApplyReduce(l, r Node, op Operator) Node {
	if op != OpAnd && op != OpXor {
		s.seterror(ErrOp)
		return cddFalse
	}
	s.applyop = op
	res := s.applyReduceRec(l, r, newTarjan(s.graphDim()))
	if s.errorcond != 0 {
		return cddFalse
	}
	return res
}

func (s *Session) applyReduceRec(l, r Node, graph consistencyGraph) Node {
	// Back off in case of error.
	if s.errorcond != 0 {
		return cddFalse
	}

	// Termination conditions.
	switch s.applyop {
	case OpAnd:
		if l == r || r == cddTrue {
			return s.reduceRec(l, graph)
		}
		if l == cddFalse || r == cddFalse || l == r.Neg() {
			return cddFalse
		}
		if l == cddTrue {
			return s.reduceRec(r, graph)
		}
		if s.isExtraTerminal(l) {
			if l.mask() == 1 {
				return l
			}
			return s.reduceRec(r, graph)
		}
		if s.isExtraTerminal(r) {
			if r.mask() == 1 {
				return r
			}
			return s.reduceRec(l, graph)
		}
	case OpXor:
		if l == r {
			return cddFalse
		}
		if l == r.Neg() {
			return cddTrue
		}
		if l == cddFalse {
			return s.reduceRec(r, graph)
		}
		if r == cddFalse {
			return s.reduceRec(l, graph)
		}
		if l == cddTrue {
			return s.reduceRec(r.Neg(), graph)
		}
		if r == cddTrue {
			return s.reduceRec(l.Neg(), graph)
		}
		if s.isExtraTerminal(l) {
			if l.mask() == 1 {
				return s.reduceRec(r, graph)
			}
			return s.reduceRec(r.Neg(), graph)
		}
		if s.isExtraTerminal(r) {
			if r.mask() == 1 {
				return s.reduceRec(l, graph)
			}
			return s.reduceRec(l.Neg(), graph)
		}
	}

	// Symmetric operation, normalise the argument order.
	if l > r {
		l, r = r, l
	}

	// The cached apply result still has to be reduced in the context of
	// the current constraint graph.
	entry := s.applycache.lookup(applyHash(l, r, s.applyop))
	if entry.a == l && entry.b == r && entry.c == int32(s.applyop) {
		if s.nodes[entry.res.id()].ref == 0 {
			s.reclaim(entry.res)
		}
		cached := s.ref(entry.res)
		res := s.reduceRec(cached, graph)
		s.RecDeref(cached)
		return res
	}

	lmask := l.mask()
	rmask := r.mask()
	ln := s.node(l)
	rn := s.node(r)
	minLevel := min32(ln.level, rn.level)
	info := &s.levelinfo[minLevel]

	var res Node
	if info.Type == TypeCDD {
		top := s.reftop
		lelems := ln.elem
		if ln.level > rn.level {
			lelems = []Elem{{Child: l.rglr(), Bnd: Inf}}
		}
		relems := rn.elem
		if rn.level > ln.level {
			relems = []Elem{{Child: r.rglr(), Bnd: Inf}}
		}

		li, ri := 0, 0
		first := s.reftop

		// Find the first consistent child; only the upper bound needs
		// checking since the children to the left are all on
		// inconsistent paths.
		bnd := minRaw(lelems[li].Bnd, relems[ri].Bnd)
		graph.push(info.Clock1, info.Clock2, bnd)
		for !graph.consistent() {
			graph.pop(info.Clock1)
			if lelems[li].Bnd == bnd {
				li++
			}
			if relems[ri].Bnd == bnd {
				ri++
			}
			bnd = minRaw(lelems[li].Bnd, relems[ri].Bnd)
			if bnd == Inf {
				s.reftop = top
				return s.applyReduceRec(negCond(lelems[li].Child, lmask),
					negCond(relems[ri].Child, rmask), graph)
			}
			graph.push(info.Clock1, info.Clock2, bnd)
		}

		prev := s.applyReduceRec(negCond(lelems[li].Child, lmask), negCond(relems[ri].Child, rmask), graph)
		s.ref(prev)
		mask := prev.mask()
		graph.pop(info.Clock1)

		// Intermediate recursions apply both the lower and the upper
		// bound. We stop at the last child or on an inconsistent lower
		// bound, which makes every remaining child inconsistent too.
		if lelems[li].Bnd == bnd {
			li++
		}
		if relems[ri].Bnd == bnd {
			ri++
		}
		lower := bnd
		bnd = minRaw(lelems[li].Bnd, relems[ri].Bnd)
		graph.push(info.Clock2, info.Clock1, dbm.L2U(lower))
		for bnd < Inf && graph.consistent() {
			graph.push(info.Clock1, info.Clock2, bnd)
			n := s.applyReduceRec(negCond(lelems[li].Child, lmask), negCond(relems[ri].Child, rmask), graph)
			graph.pop(info.Clock1)
			graph.pop(info.Clock2)

			if n != prev {
				s.pushRef(negCond(prev, mask), lower)
				prev = n
				s.ref(prev)
			}

			if lelems[li].Bnd == bnd {
				li++
			}
			if relems[ri].Bnd == bnd {
				ri++
			}
			lower = bnd
			bnd = minRaw(lelems[li].Bnd, relems[ri].Bnd)

			graph.push(info.Clock2, info.Clock1, dbm.L2U(lower))
		}

		// The last child still needs its recursion when the path is
		// consistent.
		if bnd == Inf && graph.consistent() {
			n := s.applyReduceRec(negCond(lelems[li].Child, lmask), negCond(relems[ri].Child, rmask), graph)
			if n != prev {
				s.pushRef(negCond(prev, mask), lower)
				prev = n
				s.ref(prev)
			}
		}

		graph.pop(info.Clock2)
		s.pushRef(negCond(prev, mask), Inf)

		res = negCond(s.makeCddNode(minLevel, s.refstack[first:s.reftop]), mask)

		for s.reftop > first {
			s.reftop--
			s.deref(s.refstack[s.reftop].Child)
		}
		s.reftop = top
	} else {
		var ll, lh, rl, rh Node
		if ln.level <= rn.level {
			ll, lh = ln.low, ln.high
		} else {
			ll, lh = l.rglr(), l.rglr()
		}
		if ln.level >= rn.level {
			rl, rh = rn.low, rn.high
		} else {
			rl, rh = r.rglr(), r.rglr()
		}

		n := s.applyReduceRec(negCond(ll, lmask), negCond(rl, rmask), graph)
		s.ref(n)
		res = s.makeBddNode(minLevel, n,
			s.applyReduceRec(negCond(lh, lmask), negCond(rh, rmask), graph))
		s.deref(n)
	}

	return res
}

// addBound conjoins an interval at the given level onto a diagram.
func (s *Session) addBound(c Node, level int32, low, up dbm.Raw) Node {
	if low == -Inf && up == Inf {
		return c
	}
	tmp1 := s.ref(s.intervalFromLevel(level, low, up))
	tmp2 := s.ref(s.and(c, tmp1))
	s.RecDeref(tmp1)
	s.deref(tmp2)
	return tmp2
}

// Reduce2 computes the merge-based reduced form: adjacent intervals
// whose split and join are equivalent are united, trading extra
// equivalence checks for a smaller diagram.
func (s *Session) Reduce2(node Node) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	return s.reduce2Rec(node)
}

func (s *Session) reduce2Rec(node Node) Node {
	if s.isTerminal(node) {
		return node
	}

	info := s.info(node)
	if info.Type == TypeBDD {
		tmp1 := s.ref(s.reduce2Rec(s.bddLow(node)))
		tmp2 := s.ref(s.reduce2Rec(s.bddHigh(node)))
		res := s.makeBddNode(s.nodes[node.id()].level, tmp1, tmp2)
		s.deref(tmp1)
		s.deref(tmp2)
		return res
	}

	level := s.nodes[node.id()].level
	res := cddFalse

	it := s.iter(node)
	low := it.lower()
	prev := s.ref(it.child())
	it.next()
	for !it.atEnd() {
		// Split: both children constrained to their own interval.
		tmp1 := s.ref(s.addBound(prev, level, low, it.lower()))
		tmp2 := s.ref(s.addBound(it.child(), level, it.lower(), it.upper()))
		split := s.ref(s.or(tmp1, tmp2))
		s.RecDeref(tmp1)
		s.RecDeref(tmp2)

		// Join: the union constrained to the merged interval.
		tmp1 = s.ref(s.or(prev, it.child()))
		join := s.ref(s.addBound(tmp1, level, low, it.upper()))

		if s.Equiv(split, join) {
			// The two intervals agree; keep the union as prev.
			s.RecDeref(prev)
			prev = tmp1
		} else {
			s.RecDeref(tmp1)

			t1 := s.ref(s.reduce2Rec(prev))
			t2 := s.ref(s.addBound(t1, level, low, it.lower()))
			t3 := s.ref(s.or(res, t2))
			s.RecDeref(t1)
			s.RecDeref(t2)
			s.RecDeref(res)
			res = t3

			s.RecDeref(prev)
			prev = s.ref(it.child())
			low = it.lower()
		}
		s.RecDeref(split)
		s.RecDeref(join)

		it.next()
	}

	t1 := s.ref(s.reduce2Rec(prev))
	t2 := s.ref(s.addBound(t1, level, low, Inf))
	t3 := s.ref(s.or(res, t2))
	s.RecDeref(t1)
	s.RecDeref(t2)
	s.RecDeref(res)
	s.RecDeref(prev)
	res = t3
	s.deref(res)
	return res
}
