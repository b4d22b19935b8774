// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

func maxRaw(a, b dbm.Raw) dbm.Raw {
	if a > b {
		return a
	}
	return b
}

// relax derives the transitive consequences of the interval
// (lower, upper) on clock1 - clock2 for every node below it that
// mentions one of the quantified clocks, and conjoins them into the
// children. Dropping the quantified node afterwards is then sound. The
// rc matrix holds the bounds already removed higher up the path so that
// only tighter consequences are added.
func (s *Session) relax(node Node, clocks []int32, lower dbm.Raw, clock1, clock2 int32, upper dbm.Raw, rc []dbm.Raw) Node {
	if s.isTerminal(node) {
		return node
	}

	entry := s.relaxcache.lookup(relaxHash(node, lower, clock1, clock2, upper))
	if entry.node == node && entry.lower == lower && entry.upper == upper &&
		entry.clock1 == clock1 && entry.clock2 == clock2 && entry.op == s.opid {
		if s.nodes[entry.res.id()].ref == 0 {
			s.reclaim(entry.res)
		}
		return entry.res
	}

	info := s.info(node)
	cn := s.clocknum
	res := cddFalse

	if info.Type == TypeCDD {
		for it := s.iter(node); !it.atEnd(); it.next() {
			// Detect consequences.
			var pos, neg int32 = -1, -1
			var l, u dbm.Raw
			switch {
			case info.Clock1 == clock1 && clocks[clock1] != 0:
				pos = info.Clock2
				neg = clock2
				l = dbm.U2L(dbm.Add(it.upper(), dbm.L2U(lower)))
				u = dbm.Add(upper, dbm.L2U(it.lower()))
			case info.Clock1 == clock2 && clocks[clock2] != 0:
				pos = clock1
				neg = info.Clock2
				l = dbm.U2L(dbm.Add(dbm.L2U(lower), dbm.L2U(it.lower())))
				u = dbm.Add(upper, it.upper())
			case info.Clock2 == clock1 && clocks[clock1] != 0:
				pos = info.Clock1
				neg = clock2
				l = dbm.U2L(dbm.Add(dbm.L2U(lower), dbm.L2U(it.lower())))
				u = dbm.Add(upper, it.upper())
			case info.Clock2 == clock2 && clocks[clock2] != 0:
				pos = info.Clock1
				neg = clock1
				l = dbm.U2L(dbm.Add(upper, dbm.L2U(it.lower())))
				u = dbm.Add(it.upper(), dbm.L2U(lower))
			}

			tmp2 := s.ref(s.relax(it.child(), clocks, lower, clock1, clock2, upper, rc))

			// Add the consequence when tighter than those already
			// removed along the path.
			if pos > -1 {
				if l > dbm.U2L(rc[neg*cn+pos]) || u < rc[pos*cn+neg] {
					tmp3 := s.ref(s.Interval(pos, neg,
						maxRaw(l, dbm.U2L(rc[neg*cn+pos])), minRaw(u, rc[pos*cn+neg])))
					tmp4 := s.ref(s.and(tmp2, tmp3))
					s.RecDeref(tmp2)
					s.RecDeref(tmp3)
					tmp2 = tmp4
				}
			}

			// Rebuild the node's own constraint on top.
			tmp3 := s.ref(s.intervalFromLevel(s.nodes[node.id()].level, it.lower(), it.upper()))
			tmp4 := s.ref(s.and(tmp2, tmp3))
			tmp5 := s.ref(s.or(res, tmp4))
			s.RecDeref(tmp2)
			s.RecDeref(tmp3)
			s.RecDeref(tmp4)
			s.RecDeref(res)
			res = tmp5
		}
		s.deref(res)
	} else {
		tmp1 := s.ref(s.relax(s.bddLow(node), clocks, lower, clock1, clock2, upper, rc))
		tmp2 := s.ref(s.relax(s.bddHigh(node), clocks, lower, clock1, clock2, upper, rc))
		tmp3 := s.ref(s.Bddvar(s.nodes[node.id()].level))
		res = s.ref(s.Ite(tmp3, tmp2, tmp1))
		s.RecDeref(tmp1)
		s.RecDeref(tmp2)
		s.RecDeref(tmp3)
		s.deref(res)
	}

	entry.node = node
	entry.lower = lower
	entry.upper = upper
	entry.clock1 = clock1
	entry.clock2 = clock2
	entry.op = s.opid
	entry.res = res

	return res
}

func (s *Session) existRec(node Node, levels, clocks []int32, rc []dbm.Raw) Node {
	if s.isTerminal(node) {
		return node
	}

	entry := s.quantcache.lookup(existHash(node))
	if entry.a == node && entry.c == s.opid {
		if s.nodes[entry.res.id()].ref == 0 {
			s.reclaim(entry.res)
		}
		return entry.res
	}

	info := s.info(node)
	cn := s.clocknum
	var res Node

	if info.Type == TypeCDD {
		res = cddFalse
		if clocks[info.Clock1] != 0 || clocks[info.Clock2] != 0 {
			for it := s.iter(node); !it.atEnd(); it.next() {
				// Record the constraint being removed; restored below
				// so siblings see the original matrix.
				oldLower := rc[info.Clock2*cn+info.Clock1]
				oldUpper := rc[info.Clock1*cn+info.Clock2]
				rc[info.Clock2*cn+info.Clock1] = dbm.L2U(it.lower())
				rc[info.Clock1*cn+info.Clock2] = it.upper()

				tmp1 := s.ref(s.relax(it.child(), clocks, it.lower(), info.Clock1, info.Clock2, it.upper(), rc))
				tmp2 := s.ref(s.existRec(tmp1, levels, clocks, rc))
				tmp3 := s.ref(s.or(res, tmp2))
				s.RecDeref(res)
				s.RecDeref(tmp1)
				s.RecDeref(tmp2)
				res = tmp3

				rc[info.Clock2*cn+info.Clock1] = oldLower
				rc[info.Clock1*cn+info.Clock2] = oldUpper
			}
		} else {
			for it := s.iter(node); !it.atEnd(); it.next() {
				tmp1 := s.ref(s.intervalFromLevel(s.nodes[node.id()].level, it.lower(), it.upper()))
				tmp2 := s.ref(s.existRec(it.child(), levels, clocks, rc))
				tmp3 := s.ref(s.and(tmp1, tmp2))
				tmp4 := s.ref(s.or(res, tmp3))
				s.RecDeref(res)
				s.RecDeref(tmp1)
				s.RecDeref(tmp2)
				s.RecDeref(tmp3)
				res = tmp4
			}
		}
		s.deref(res)
	} else {
		tmp1 := s.ref(s.existRec(s.bddLow(node), levels, clocks, rc))
		tmp2 := s.ref(s.existRec(s.bddHigh(node), levels, clocks, rc))

		if levels[s.nodes[node.id()].level] != 0 {
			res = s.ref(s.or(tmp1, tmp2))
		} else {
			tmp3 := s.ref(s.Bddvar(s.nodes[node.id()].level))
			res = s.ref(s.Ite(tmp3, tmp2, tmp1))
			s.RecDeref(tmp3)
		}

		s.RecDeref(tmp1)
		s.RecDeref(tmp2)
		s.deref(res)
	}

	entry.a = node
	entry.b = 0
	entry.c = s.opid
	entry.res = res

	return res
}

// Exist existentially quantifies the boolean variables at the given
// levels and the given clocks out of a diagram. Quantified boolean
// nodes turn into the disjunction of their branches; quantified clock
// nodes are removed after relaxing their constraints into the children.
func (s *Session) Exist(n Node, boolLevels, clockIndices []int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	levels := make([]int32, len(s.levelinfo))
	for _, b := range boolLevels {
		if b < 0 || int(b) >= len(s.levelinfo) || s.levelinfo[b].Type != TypeBDD {
			s.seterror(ErrVar)
			return cddFalse
		}
		levels[b] = 1
	}
	clocks := make([]int32, s.clocknum)
	for _, c := range clockIndices {
		if c < 0 || c >= s.clocknum {
			s.seterror(ErrVar)
			return cddFalse
		}
		clocks[c] = 1
	}
	rc := make([]dbm.Raw, s.clocknum*s.clocknum)
	for i := range rc {
		rc[i] = Inf
	}
	s.opid++
	return s.existRec(n, levels, clocks, rc)
}

// Replace substitutes variables: BDD nodes are rebuilt at
// levelMap[level] and CDD nodes at the level of the mapped clock pair.
// levelMap is indexed by level and clockMap by clock index.
func (s *Session) Replace(n Node, levelMap, clockMap []int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	if len(levelMap) != len(s.levelinfo) || len(clockMap) != int(s.clocknum) {
		s.seterror(ErrReplace)
		return cddFalse
	}
	s.opid++
	return s.replaceRec(n, levelMap, clockMap)
}

func (s *Session) replaceRec(node Node, levels, clocks []int32) Node {
	if s.isTerminal(node) {
		return node
	}

	entry := s.replacecache.lookup(replaceHash(node))
	if entry.a == node && entry.c == s.opid {
		if s.nodes[entry.res.id()].ref == 0 {
			s.reclaim(entry.res)
		}
		return entry.res
	}

	info := s.info(node)
	var res Node

	if info.Type == TypeBDD {
		tmp1 := s.ref(s.Bddvar(levels[s.nodes[node.id()].level]))
		tmp2 := s.ref(s.replaceRec(s.bddLow(node), levels, clocks))
		tmp3 := s.ref(s.replaceRec(s.bddHigh(node), levels, clocks))
		res = s.ref(s.Ite(tmp1, tmp3, tmp2))
		s.RecDeref(tmp1)
		s.RecDeref(tmp2)
		s.RecDeref(tmp3)
		s.deref(res)
	} else {
		res = cddFalse
		for it := s.iter(node); !it.atEnd(); it.next() {
			tmp1 := s.ref(s.Interval(clocks[info.Clock1], clocks[info.Clock2], it.lower(), it.upper()))
			tmp2 := s.ref(s.replaceRec(it.child(), levels, clocks))
			tmp3 := s.ref(s.and(tmp1, tmp2))
			s.RecDeref(tmp1)
			s.RecDeref(tmp2)
			tmp1 = s.ref(s.or(res, tmp3))
			s.RecDeref(res)
			s.RecDeref(tmp3)
			res = tmp1
		}
		s.deref(res)
	}

	entry.a = node
	entry.b = 0
	entry.c = s.opid
	entry.res = res

	return res
}
