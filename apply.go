// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// Operator identifies the binary operations of Apply.
type Operator int32

const (
	OpAnd Operator = iota // conjunction
	OpXor                 // exclusive or
)

var opnames = [2]string{
	OpAnd: "and",
	OpXor: "xor",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(opnames) {
		return "unknown"
	}
	return opnames[op]
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func minRaw(a, b dbm.Raw) dbm.Raw {
	if a < b {
		return a
	}
	return b
}

// Apply performs a binary operation on two decision diagrams. The
// reference count of the result is not incremented.
func (s *Session) Apply(l, r Node, op Operator) Node {
	if op != OpAnd && op != OpXor {
		s.seterror(ErrOp)
		return cddFalse
	}
	s.applyop = op
	res := s.applyRec(l, r, false)
	if s.errorcond != 0 {
		return cddFalse
	}
	return res
}

// ApplyForced is Apply with the shortcut table disabled, so the whole
// diagram is rebuilt even when an operand would short-circuit.
func (s *Session) ApplyForced(l, r Node, op Operator) Node {
	if op != OpAnd && op != OpXor {
		s.seterror(ErrOp)
		return cddFalse
	}
	s.applyop = op
	res := s.applyRec(l, r, true)
	if s.errorcond != 0 {
		return cddFalse
	}
	return res
}

// PushNegate rebuilds a diagram through ApplyForced. The rebuilt nodes
// go through the same normalisation as every other node (first child
// stored non-negated), so the negation bits are not moved down onto the
// terminals: they stay on the edges and on the returned handle.
func (s *Session) PushNegate(n Node) Node {
	return s.ApplyForced(n, n, OpAnd)
}

// internal connectives; each sets the current operator the way the
// public entry points do.

func (s *Session) and(l, r Node) Node {
	s.applyop = OpAnd
	return s.applyRec(l, r, false)
}

func (s *Session) xor(l, r Node) Node {
	s.applyop = OpXor
	return s.applyRec(l, r, false)
}

func (s *Session) or(l, r Node) Node {
	return s.and(l.Neg(), r.Neg()).Neg()
}

func (s *Session) applyRec(l, r Node, forced bool) Node {
	// Back off in case of error.
	if s.errorcond != 0 {
		return cddFalse
	}

	// Termination conditions.
	if !forced {
		switch s.applyop {
		case OpAnd:
			if l == r || r == cddTrue {
				return l
			}
			if l == cddFalse || r == cddFalse || l == r.Neg() {
				return cddFalse
			}
			if l == cddTrue {
				return r
			}
			if s.isExtraTerminal(l) {
				if l.mask() == 1 {
					return l
				}
				return r
			}
			if s.isExtraTerminal(r) {
				if r.mask() == 1 {
					return r
				}
				return l
			}
		case OpXor:
			if l == r {
				return cddFalse
			}
			if l == r.Neg() {
				return cddTrue
			}
			if l == cddFalse {
				return r
			}
			if r == cddFalse {
				return l
			}
			if l == cddTrue {
				return r.Neg()
			}
			if r == cddTrue {
				return l.Neg()
			}
			if s.isExtraTerminal(l) {
				if l.mask() == 1 {
					return r
				}
				return r.Neg()
			}
			if s.isExtraTerminal(r) {
				if r.mask() == 1 {
					return l
				}
				return l.Neg()
			}
		}
	}

	// The operations are symmetric; normalise for better cache
	// performance.
	if l > r {
		l, r = r, l
	}

	if s.isTerminal(l) && s.isTerminal(r) {
		if l != r {
			s.logger.Warnf("cdd: %s between distinct extra terminal nodes", s.applyop)
		}
		return l
	}

	entry := s.applycache.lookup(applyHash(l, r, s.applyop))
	if entry.a == l && entry.b == r && entry.c == int32(s.applyop) {
		if s.nodes[entry.res.id()].ref == 0 {
			s.reclaim(entry.res)
		}
		return entry.res
	}

	// Extract the masks to push the negation bit down onto the
	// children of the recursive calls.
	lmask := l.mask()
	rmask := r.mask()
	ln := s.node(l)
	rn := s.node(r)
	minLevel := min32(ln.level, rn.level)

	var res Node
	if s.levelinfo[minLevel].Type == TypeCDD {
		// Co-walk the two interval partitions. An operand sitting at a
		// deeper level is wrapped into a single unbounded element.
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

		prev := s.applyRec(negCond(lelems[li].Child, lmask), negCond(relems[ri].Child, rmask), forced)
		s.ref(prev)
		mask := prev.mask()
		bnd := minRaw(lelems[li].Bnd, relems[ri].Bnd)

		for bnd < Inf {
			if lelems[li].Bnd == bnd {
				li++
			}
			if relems[ri].Bnd == bnd {
				ri++
			}
			n := s.applyRec(negCond(lelems[li].Child, lmask), negCond(relems[ri].Child, rmask), forced)
			if n != prev {
				s.pushRef(negCond(prev, mask), bnd)
				prev = n
				s.ref(prev)
			}
			bnd = minRaw(lelems[li].Bnd, relems[ri].Bnd)
		}
		s.pushRef(negCond(prev, mask), Inf)

		res = negCond(s.makeCddNode(minLevel, s.refstack[first:s.reftop]), mask)

		for i := first; i < s.reftop; i++ {
			s.deref(s.refstack[i].Child)
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

		n := s.applyRec(negCond(ll, lmask), negCond(rl, rmask), forced)
		s.ref(n)
		res = s.makeBddNode(minLevel, n,
			s.applyRec(negCond(lh, lmask), negCond(rh, rmask), forced))
		s.deref(n)
	}

	entry.a = l
	entry.b = r
	entry.c = int32(s.applyop)
	entry.res = res

	return res
}

// Ite computes if-then-else: (f and g) or (not f and h).
func (s *Session) Ite(f, g, h Node) Node {
	g = s.ref(s.and(f, g))
	h = s.ref(s.and(f.Neg(), h))
	res := s.ref(s.or(g, h))
	s.RecDeref(g)
	s.RecDeref(h)
	s.deref(res)
	return res
}

// And returns the conjunction of a sequence of diagrams.
func (s *Session) And(ns ...Node) Node {
	if len(ns) == 0 {
		return cddTrue
	}
	res := s.ref(ns[0])
	for _, n := range ns[1:] {
		n = s.ref(n)
		next := s.ref(s.Apply(res, n, OpAnd))
		s.RecDeref(res)
		s.RecDeref(n)
		res = next
	}
	s.deref(res)
	return res
}

// Or returns the disjunction of a sequence of diagrams.
func (s *Session) Or(ns ...Node) Node {
	if len(ns) == 0 {
		return cddFalse
	}
	res := s.ref(ns[0])
	for _, n := range ns[1:] {
		n = s.ref(n)
		next := s.ref(s.or(res, n))
		s.RecDeref(res)
		s.RecDeref(n)
		res = next
	}
	s.deref(res)
	return res
}

// Xor returns the symmetric difference of two diagrams.
func (s *Session) Xor(l, r Node) Node { return s.Apply(l, r, OpXor) }

// Minus returns the set difference l minus r.
func (s *Session) Minus(l, r Node) Node { return s.Apply(l, r.Neg(), OpAnd) }

// Nodecount returns the number of nodes in a diagram.
func (s *Session) Nodecount(n Node) int32 {
	var cnt int32
	s.markcount(n, &cnt)
	s.unmark(n)
	return cnt
}

// Edgecount returns the number of edges in a diagram.
func (s *Session) Edgecount(n Node) int32 {
	var cnt int32
	s.markedgecount(n, &cnt)
	s.unmark(n)
	return cnt
}

// Equiv tests semantic equivalence by reducing the symmetric
// difference: diagrams are only pseudo canonical, so handle equality is
// sound but not complete.
func (s *Session) Equiv(l, r Node) bool {
	tmp1 := s.retain(s.xor(l, r))
	tmp2 := s.retain(s.Reduce(tmp1))
	s.release(tmp1)
	s.release(tmp2)
	return tmp2 == cddFalse
}

// IsBDD reports whether the diagram constrains no clocks at all.
func (s *Session) IsBDD(n Node) bool {
	if s.isTerminal(n) {
		return true
	}
	if s.info(n).Type != TypeBDD {
		return false
	}
	return s.IsBDD(s.bddLow(n)) && s.IsBDD(s.bddHigh(n))
}
