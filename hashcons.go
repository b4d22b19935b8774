// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

const (
	_P1 uint32 = 12582917
	_P2 uint32 = 4256249
)

func bddHash(low, high Node) uint32 {
	return (uint32(low)*_P1 + uint32(high)) * _P2
}

func cddHashElems(elems []Elem) uint32 {
	h := uint32(len(elems))
	for _, e := range elems {
		h = (h + uint32(e.Child)) * _P1
		h = (h + uint32(e.Bnd)) * _P2
	}
	return h
}

func bddHashNode(s *Session, id uint32) uint32 {
	return bddHash(s.nodes[id].low, s.nodes[id].high)
}

func cddHashNode(s *Session, id uint32) uint32 {
	return cddHashElems(s.nodes[id].elem)
}

// cmpElems orders element arrays lexicographically. The empty array of
// the chain terminator sorts below everything, which ends the sorted
// chain walks the same way the zeroed sentinel node does in a byte
// comparison.
func cmpElems(a, b []Elem) int {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k].Child != b[k].Child {
			if a[k].Child < b[k].Child {
				return -1
			}
			return 1
		}
		if a[k].Bnd != b[k].Bnd {
			if uint32(a[k].Bnd) < uint32(b[k].Bnd) {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// makeBddNode interns the BDD node (level, low, high). Redundant nodes
// collapse to their child and a negated low child is normalised by
// pushing the negation onto the returned handle. The reference count of
// the result is not incremented.
func (s *Session) makeBddNode(level int32, low, high Node) Node {
	if low == high {
		return low
	}

	// Normalise: the first child is stored non-negated.
	mask := low.mask()
	low = low.rglr()
	high = negCond(high, mask)

	man := s.bddman
	tbl := man.table(level)

	// The chains are sorted by descending (low, high); the zeroed
	// terminator stops every walk.
	bucket := bddHash(low, high) >> tbl.shift
	pp := &tbl.hash[bucket]
	for low < s.nodes[*pp].low {
		pp = &s.nodes[*pp].next
	}
	for low == s.nodes[*pp].low && high < s.nodes[*pp].high {
		pp = &s.nodes[*pp].next
	}
	if id := *pp; id != 0 && low == s.nodes[id].low && high == s.nodes[id].high {
		if s.nodes[id].ref == 0 {
			s.reclaim(mkNode(id, 0))
		}
		return negCond(mkNode(id, 0), mask)
	}

	s.ref(low)
	s.ref(high)

	id := s.allocNode(man)

	// Allocation may have grown the arena or run a sweep; the insertion
	// point has to be recomputed.
	pp = &tbl.hash[bucket]
	for low < s.nodes[*pp].low {
		pp = &s.nodes[*pp].next
	}
	for low == s.nodes[*pp].low && high < s.nodes[*pp].high {
		pp = &s.nodes[*pp].next
	}

	nd := &s.nodes[id]
	nd.next = *pp
	*pp = id
	nd.level = level
	nd.ref = 0
	nd.flag = 0
	nd.low = low
	nd.high = high
	nd.elem = nil

	tbl.keys++
	if tbl.keys > tbl.maxkeys {
		s.rehash(man, tbl)
	}

	return negCond(mkNode(id, 0), mask)
}

// makeCddNode interns a CDD node from an element array. Arrays of
// length one collapse to their only child. The elements are copied; the
// reference count of the result is not incremented.
func (s *Session) makeCddNode(level int32, elems []Elem) Node {
	if len(elems) > int(s.maxcddsize) {
		s.seterror(ErrMaxsize)
		return cddFalse
	}
	if len(elems) == 1 {
		return elems[0].Child
	}

	man := s.cddManager(int32(len(elems)))
	tbl := man.table(level)

	bucket := cddHashElems(elems) >> tbl.shift
	pp := &tbl.hash[bucket]
	cmp := 1
	for {
		if *pp == 0 {
			break
		}
		cmp = cmpElems(elems, s.nodes[*pp].elem)
		if cmp >= 0 {
			break
		}
		pp = &s.nodes[*pp].next
	}
	if id := *pp; id != 0 && cmp == 0 {
		if s.nodes[id].ref == 0 {
			s.reclaim(mkNode(id, 0))
		}
		return mkNode(id, 0)
	}

	for _, e := range elems {
		s.ref(e.Child)
	}

	id := s.allocNode(man)

	pp = &tbl.hash[bucket]
	for *pp != 0 && cmpElems(elems, s.nodes[*pp].elem) < 0 {
		pp = &s.nodes[*pp].next
	}

	nd := &s.nodes[id]
	nd.next = *pp
	*pp = id
	nd.level = level
	nd.ref = 0
	nd.flag = 0
	nd.elem = append([]Elem(nil), elems...)

	tbl.keys++
	if tbl.keys > tbl.maxkeys {
		s.rehash(man, tbl)
	}

	return mkNode(id, 0)
}

// Bddvar returns the diagram testing the boolean variable at level.
func (s *Session) Bddvar(level int32) Node {
	if level < 0 || int(level) >= len(s.levelinfo) || s.levelinfo[level].Type != TypeBDD {
		s.seterror(ErrVar)
		return cddFalse
	}
	return s.makeBddNode(level, cddFalse, cddTrue)
}

// Bddnvar returns the negation of the boolean variable at level.
func (s *Session) Bddnvar(level int32) Node {
	return s.Bddvar(level).Neg()
}

// intervalFromLevel builds the single-node diagram for value of the
// difference at level in (low, high], where low and high are raw
// bounds.
func (s *Session) intervalFromLevel(level int32, low, high dbm.Raw) Node {
	top := s.reftop
	if low > -Inf {
		s.pushRef(cddFalse, low)
		s.pushRef(cddTrue, high)
		if high < Inf {
			s.pushRef(cddFalse, Inf)
		}
		res := s.makeCddNode(level, s.refstack[top:s.reftop])
		s.reftop = top
		return res
	}
	s.pushRef(cddFalse, high)
	s.pushRef(cddTrue, Inf)
	res := s.makeCddNode(level, s.refstack[top:s.reftop]).Neg()
	s.reftop = top
	return res
}

// upperFromLevel builds the diagram for difference <~ bnd at level.
func (s *Session) upperFromLevel(level int32, bnd dbm.Raw) Node {
	if bnd == Inf {
		return cddTrue
	}
	if bnd == -Inf {
		return cddFalse
	}
	top := s.reftop
	s.pushRef(cddFalse, bnd)
	s.pushRef(cddTrue, Inf)
	res := s.makeCddNode(level, s.refstack[top:s.reftop]).Neg()
	s.reftop = top
	return res
}

// Interval returns the diagram for lower <~ xi - xj <~ upper, where
// lower is a raw lower bound and upper a raw upper bound.
func (s *Session) Interval(i, j int32, lower, upper dbm.Raw) Node {
	if i == j || i < 0 || j < 0 || i >= s.clocknum || j >= s.clocknum {
		s.seterror(ErrVar)
		return cddFalse
	}
	if i > j {
		return s.intervalFromLevel(s.diff2level[difference(i, j)], lower, upper)
	}
	return s.intervalFromLevel(s.diff2level[difference(j, i)], dbm.U2L(upper), dbm.L2U(lower))
}

// Upper returns the diagram for xi - xj <~ bnd.
func (s *Session) Upper(i, j int32, bnd dbm.Raw) Node {
	if i == j || i < 0 || j < 0 || i >= s.clocknum || j >= s.clocknum {
		s.seterror(ErrVar)
		return cddFalse
	}
	if i > j {
		return s.upperFromLevel(s.diff2level[difference(i, j)], bnd)
	}
	return s.upperFromLevel(s.diff2level[difference(j, i)], dbm.U2L(bnd)).Neg()
}

// Lower returns the diagram for bnd <~ xi - xj.
func (s *Session) Lower(i, j int32, bnd dbm.Raw) Node {
	return s.Upper(i, j, bnd).Neg()
}
