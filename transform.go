// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// The transformers all work on "reduced DBM plus BDD tail" fragments:
// the diagram is repeatedly reduced, one zone is split off together
// with its boolean part, the zone is transformed through the DBM
// module, and the pieces are joined back by union.

// Delay removes the upper bounds of every zone of the diagram (time
// successors). Terminals and purely boolean diagrams are left alone.
func (s *Session) Delay(state Node) Node {
	return s.transformZones(state, dbm.Up)
}

// Past lowers every zone of the diagram towards zero (time
// predecessors).
func (s *Session) Past(state Node) Node {
	return s.transformZones(state, dbm.Down)
}

// DelayInvariant delays the diagram and intersects with an invariant.
func (s *Session) DelayInvariant(state, invar Node) Node {
	r := s.retain(s.Delay(state))
	out := s.ref(s.and(r, invar))
	s.release(r)
	s.deref(out)
	return out
}

func (s *Session) transformZones(state Node, f func([]dbm.Raw, int)) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	if s.isTerminal(state) || s.info(state).Type == TypeBDD {
		return state
	}

	size := s.clocknum
	d := make([]dbm.Raw, size*size)
	copyN := s.retain(state)
	res := s.retain(cddFalse)

	for !s.isTerminal(copyN) && s.info(copyN).Type != TypeBDD {
		red := s.retain(s.Reduce(copyN))
		s.release(copyN)
		copyN = red

		bottom := s.retain(s.ExtractBDD(copyN, size))
		rest := s.retain(s.ExtractDBM(copyN, d, size))
		s.release(copyN)

		rn := s.retain(s.RemoveNegative(rest))
		s.release(rest)
		copyN = s.retain(s.Reduce(rn))
		s.release(rn)

		f(d, int(size))

		z := s.retain(s.FromDBM(d, size))
		fixed := s.retain(s.and(z, bottom))
		s.release(z)
		nr := s.retain(s.or(res, fixed))
		s.release(res)
		s.release(fixed)
		s.release(bottom)
		res = nr
	}

	s.release(copyN)
	s.deref(res)
	return res
}

// ApplyReset applies clock and boolean resets: the listed booleans are
// existentially quantified and conjoined with their reset values,
// negative-clock parts are removed, and every extracted zone gets the
// clock assignments applied.
func (s *Session) ApplyReset(state Node, clockResets, clockValues, boolResets, boolValues []int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}
	if len(clockResets) != len(clockValues) || len(boolResets) != len(boolValues) {
		s.seterror(ErrClknum)
		return cddFalse
	}

	copyN := s.retain(state)

	if len(boolResets) > 0 {
		e := s.retain(s.Exist(copyN, boolResets, nil))
		s.release(copyN)
		copyN = e
	}
	for i, b := range boolResets {
		var v Node
		if boolValues[i] == 1 {
			v = s.Bddvar(b)
		} else {
			v = s.Bddnvar(b)
		}
		v = s.retain(v)
		nc := s.retain(s.and(copyN, v))
		s.release(copyN)
		s.release(v)
		copyN = nc
	}

	rn := s.retain(s.RemoveNegative(copyN))
	s.release(copyN)
	copyN = rn

	// Already done when there is nothing to assign or no clock part.
	if len(clockResets) == 0 || s.isTerminal(copyN) || s.info(copyN).Type == TypeBDD {
		s.deref(copyN)
		return copyN
	}

	size := s.clocknum
	res := s.retain(cddFalse)
	for !s.isTerminal(copyN) && s.info(copyN).Type != TypeBDD {
		red := s.retain(s.Reduce(copyN))
		s.release(copyN)
		copyN = red

		exres := s.ExtractBddAndDbm(copyN)
		bottom := s.retain(exres.BDDPart)
		rest := s.retain(exres.CDDPart)
		s.release(copyN)

		rn := s.retain(s.RemoveNegative(rest))
		s.release(rest)
		copyN = s.retain(s.Reduce(rn))
		s.release(rn)

		for i := range clockResets {
			dbm.UpdateValue(exres.DBM, int(size), int(clockResets[i]), clockValues[i])
		}

		z := s.retain(s.FromDBM(exres.DBM, size))
		f := s.retain(s.and(z, bottom))
		s.release(z)
		nr := s.retain(s.or(res, f))
		s.release(res)
		s.release(f)
		s.release(bottom)
		res = nr
	}

	s.release(copyN)
	s.deref(res)
	return res
}

// Transition conjoins the source with the guard and applies the resets.
func (s *Session) Transition(state, guard Node, clockResets, clockValues, boolResets, boolValues []int32) Node {
	copyN := s.retain(s.and(state, guard))
	res := s.ref(s.ApplyReset(copyN, clockResets, clockValues, boolResets, boolValues))
	s.release(copyN)
	s.deref(res)
	return res
}

// TransitionBack runs a transition backwards: the target is conjoined
// with the update, the reset booleans are existentially quantified,
// every reset clock is freed zone by zone, and the result is conjoined
// with the guard.
func (s *Session) TransitionBack(state, guard, update Node, clockResets, boolResets []int32) Node {
	if s.errorcond != 0 {
		return cddFalse
	}

	copyN := s.retain(s.and(state, update))
	if copyN == cddFalse {
		s.release(copyN)
		return cddFalse
	}

	if len(boolResets) > 0 {
		e := s.retain(s.Exist(copyN, boolResets, nil))
		s.release(copyN)
		copyN = e
	}

	if len(clockResets) == 0 || (!s.isTerminal(copyN) && s.info(copyN).Type == TypeBDD) {
		out := s.ref(s.and(copyN, guard))
		s.release(copyN)
		s.deref(out)
		return out
	}

	size := s.clocknum
	res := s.retain(cddFalse)

	rn := s.retain(s.RemoveNegative(copyN))
	s.release(copyN)
	copyN = rn

	for !s.isTerminal(copyN) && s.info(copyN).Type != TypeBDD {
		red := s.retain(s.Reduce(copyN))
		s.release(copyN)
		copyN = red

		exres := s.ExtractBddAndDbm(copyN)
		bottom := s.retain(exres.BDDPart)
		rest := s.retain(exres.CDDPart)
		s.release(copyN)

		rn := s.retain(s.RemoveNegative(rest))
		s.release(rest)
		copyN = s.retain(s.Reduce(rn))
		s.release(rn)

		for _, c := range clockResets {
			dbm.FreeClock(exres.DBM, int(size), int(c))
		}

		z := s.retain(s.FromDBM(exres.DBM, size))
		f := s.retain(s.and(z, bottom))
		s.release(z)
		nr := s.retain(s.or(res, f))
		s.release(res)
		s.release(f)
		s.release(bottom)
		res = nr
	}
	s.release(copyN)

	out := s.ref(s.and(res, guard))
	s.release(res)
	s.deref(out)
	return out
}

// TransitionBackPast is TransitionBack followed by Past, giving the
// states that can delay and then take the transition into the target.
func (s *Session) TransitionBackPast(state, guard, update Node, clockResets, boolResets []int32) Node {
	r := s.retain(s.TransitionBack(state, guard, update, clockResets, boolResets))
	out := s.ref(s.Past(r))
	s.release(r)
	s.deref(out)
	return out
}

// zonePart is one (zone, boolean tail) fragment of a diagram. The tail
// handle is retained by extractParts and released by the caller.
type zonePart struct {
	d   []dbm.Raw
	bdd Node
}

// extractParts splits a diagram into its zone fragments. A remaining
// purely boolean tail contributes a fragment with the unconstrained
// non-negative zone.
func (s *Session) extractParts(state Node) []zonePart {
	size := s.clocknum
	var parts []zonePart
	copyN := s.retain(state)
	for !s.isTerminal(copyN) && s.info(copyN).Type != TypeBDD {
		red := s.retain(s.Reduce(copyN))
		s.release(copyN)
		copyN = red

		d := make([]dbm.Raw, size*size)
		bottom := s.retain(s.ExtractBDD(copyN, size))
		rest := s.retain(s.ExtractDBM(copyN, d, size))
		s.release(copyN)

		rn := s.retain(s.RemoveNegative(rest))
		s.release(rest)
		copyN = s.retain(s.Reduce(rn))
		s.release(rn)

		parts = append(parts, zonePart{d: d, bdd: bottom})
	}
	if copyN != cddFalse {
		d := make([]dbm.Raw, size*size)
		dbm.Init(d, int(size))
		parts = append(parts, zonePart{d: d, bdd: copyN})
	} else {
		s.release(copyN)
	}
	return parts
}

func (s *Session) releaseParts(parts []zonePart) {
	for _, p := range parts {
		s.release(p.bdd)
	}
}

// bddLevels lists the levels of the declared boolean variables.
func (s *Session) bddLevels() []int32 {
	var levels []int32
	for k, info := range s.levelinfo {
		if info.Type == TypeBDD {
			levels = append(levels, int32(k))
		}
	}
	return levels
}

// valuationCube builds the conjunction of all boolean variables in the
// polarity given by the bits of val.
func (s *Session) valuationCube(levels []int32, val uint32) Node {
	cube := s.retain(cddTrue)
	for k, lvl := range levels {
		var v Node
		if val&(uint32(1)<<uint(k)) != 0 {
			v = s.Bddvar(lvl)
		} else {
			v = s.Bddnvar(lvl)
		}
		v = s.retain(v)
		nc := s.retain(s.and(cube, v))
		s.release(cube)
		s.release(v)
		cube = nc
	}
	s.deref(cube)
	return cube
}

// Predt computes the timed predecessors of target that avoid safe: the
// valuations from which target is reachable by a delay without passing
// through safe on the way.
//
// The boolean state is handled by enumerating every valuation of the
// declared boolean variables, so the cost is exponential in their
// number; the operation is intended for systems with few booleans. Per
// valuation, the zones of target are lowered with the down operation
// and the down-closure of the compatible safe zones is subtracted;
// valuations where safe has no compatible zone keep the whole lowered
// zone.
func (s *Session) Predt(target, safe Node) Node {
	if s.errorcond != 0 {
		return cddFalse
	}

	targetParts := s.extractParts(target)
	safeParts := s.extractParts(safe)
	levels := s.bddLevels()

	res := s.retain(cddFalse)
	scratch := make([]dbm.Raw, s.clocknum*s.clocknum)

	valuations := uint32(1) << uint(len(levels))
	for val := uint32(0); val < valuations; val++ {
		cube := s.retain(s.valuationCube(levels, val))

		for _, tp := range targetParts {
			tb := s.retain(s.and(tp.bdd, cube))
			empty := tb == cddFalse
			s.release(tb)
			if empty {
				continue
			}

			dbm.Copy(scratch, tp.d, int(s.clocknum))
			dbm.Down(scratch, int(s.clocknum))
			down := s.retain(s.FromDBM(scratch, s.clocknum))

			// Down-closure of the compatible safe zones.
			avoid := s.retain(cddFalse)
			for _, sp := range safeParts {
				sb := s.retain(s.and(sp.bdd, cube))
				if sb == cddFalse {
					s.release(sb)
					continue
				}
				s.release(sb)
				dbm.Copy(scratch, sp.d, int(s.clocknum))
				dbm.Down(scratch, int(s.clocknum))
				sd := s.retain(s.FromDBM(scratch, s.clocknum))
				na := s.retain(s.or(avoid, sd))
				s.release(avoid)
				s.release(sd)
				avoid = na
			}

			pred := s.retain(s.and(down, avoid.Neg()))
			s.release(down)
			s.release(avoid)

			contrib := s.retain(s.and(pred, cube))
			s.release(pred)
			nr := s.retain(s.or(res, contrib))
			s.release(res)
			s.release(contrib)
			res = nr
		}

		s.release(cube)
	}

	s.releaseParts(targetParts)
	s.releaseParts(safeParts)

	out := s.retain(s.Reduce(res))
	s.release(res)
	s.deref(out)
	return out
}
