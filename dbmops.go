// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// FromDBM converts a DBM to the equivalent diagram. The clock indexes
// of the DBM must correspond to the clocks declared in the session. The
// diagram is built bottom-up, traversing the declared levels in reverse
// order and splicing in one node per constrained clock pair. Negated
// edges only matter when a level carries no lower bound.
func (s *Session) FromDBM(d []dbm.Raw, dim int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	c := cddTrue
	for k := int32(len(s.levelinfo)) - 1; k >= 0; k-- {
		info := &s.levelinfo[k]
		if info.Type != TypeCDD {
			continue
		}
		i := info.Clock1
		j := info.Clock2

		// DBMs smaller than the declared clock count leave the extra
		// levels unconstrained.
		if i >= dim || j >= dim {
			continue
		}

		lo := d[j*dim+i] < dbm.LSInfinity
		hi := d[i*dim+j] < dbm.LSInfinity
		if !lo && !hi {
			continue
		}

		top := s.reftop
		tmp := c
		if lo {
			s.pushRef(cddFalse, dbm.U2L(d[j*dim+i]))
			if hi {
				s.pushRef(c, d[i*dim+j])
				s.pushRef(cddFalse, Inf)
			} else {
				s.pushRef(c, Inf)
			}
			c = s.makeCddNode(k, s.refstack[top:s.reftop])
		} else {
			s.pushRef(c.rglr(), d[i*dim+j])
			s.pushRef(negCond(cddFalse, c.mask()), Inf)
			c = negCond(s.makeCddNode(k, s.refstack[top:s.reftop]), c.mask())
		}
		s.ref(c)
		s.deref(tmp)
		s.reftop = top
	}

	s.deref(c)
	return c
}

// ExtractDBM extracts one zone from a reduced diagram, writing it to d,
// and returns the remainder: the input diagram minus the zone. Callers
// iterate until the remainder is false or constrains no clocks.
func (s *Session) ExtractDBM(node Node, d []dbm.Raw, dim int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}

	n := node
	dbm.Init(d, int(dim))

	for !s.isTerminal(n) && s.info(n).Type == TypeCDD {
		info := s.info(n)
		it := s.iter(n)
		for s.evalFalse(it.child()) {
			it.next()
		}
		dbm.Constrain(d, int(dim), uint32(info.Clock2), uint32(info.Clock1), dbm.L2U(it.lower()))
		dbm.Constrain(d, int(dim), uint32(info.Clock1), uint32(info.Clock2), it.upper())
		n = it.child()
	}
	dbm.Close(d, int(dim))

	zone := s.ref(s.FromDBM(d, dim))
	res := s.and(node, zone.Neg())
	s.deref(zone)
	return res
}

// ExtractBDD returns the boolean sub-diagram below the first
// true-reaching path of a reduced diagram.
func (s *Session) ExtractBDD(node Node, dim int32) Node {
	n := node
	for !s.isTerminal(n) && s.info(n).Type == TypeCDD {
		it := s.iter(n)
		for s.evalFalse(it.child()) {
			it.next()
		}
		n = it.child()
	}
	return n
}

// ExtractionResult bundles one zone extracted from a diagram: the
// remainder, the boolean part below the zone, and the zone itself.
type ExtractionResult struct {
	CDDPart Node
	BDDPart Node
	DBM     []dbm.Raw
}

// ExtractBddAndDbm extracts the first zone of a reduced diagram
// together with its boolean tail.
func (s *Session) ExtractBddAndDbm(state Node) ExtractionResult {
	size := s.clocknum
	d := make([]dbm.Raw, size*size)
	bdd := s.ExtractBDD(state, size)
	rest := s.ExtractDBM(state, d, size)
	return ExtractionResult{CDDPart: rest, BDDPart: bdd, DBM: d}
}

// Contains reports whether the zone d is a subset of the diagram: every
// interval at every level, intersected with the zone, must still be
// included in the corresponding child.
func (s *Session) Contains(node Node, d []dbm.Raw, dim int32) bool {
	return s.containsRec(node, d, dim)
}

func (s *Session) containsRec(node Node, d []dbm.Raw, dim int32) bool {
	if node == cddTrue {
		return true
	}
	if node == cddFalse {
		return false
	}
	if s.isExtraTerminal(node) {
		return node.mask() == 0
	}

	info := s.info(node)
	if info.Type == TypeCDD {
		// A DBM with fewer dimensions is a priori bigger than any
		// diagram constraining the extra clocks.
		if info.Clock1 >= dim || info.Clock2 >= dim {
			return false
		}
		tmp := make([]dbm.Raw, dim*dim)
		for it := s.iter(node); !it.atEnd(); it.next() {
			if s.evalTrue(it.child()) {
				continue
			}
			dbm.Copy(tmp, d, int(dim))
			nonempty := dbm.ConstrainN(tmp, int(dim), []dbm.Constraint{
				{I: uint32(info.Clock2), J: uint32(info.Clock1), Value: dbm.L2U(it.lower())},
				{I: uint32(info.Clock1), J: uint32(info.Clock2), Value: it.upper()},
			})
			if nonempty && !s.containsRec(it.child(), tmp, dim) {
				return false
			}
		}
		return true
	}
	return s.containsRec(s.bddLow(node), d, dim) && s.containsRec(s.bddHigh(node), d, dim)
}

// RemoveNegative interprets the diagram over clock valuations and
// removes the parts where a clock is below the reference clock 0.
func (s *Session) RemoveNegative(node Node) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	res := s.ref(node)
	for i := int32(1); i < s.clocknum; i++ {
		tmp1 := s.ref(s.Interval(i, 0, dbm.LowerOf(0, false), Inf))
		tmp2 := s.ref(s.and(res, tmp1))
		s.RecDeref(tmp1)
		s.RecDeref(res)
		res = tmp2
	}
	s.deref(res)
	return res
}
