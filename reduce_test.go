// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

// triangle builds x1 <= 1 /\ x2 - x1 <= 1 /\ x2 >= lower, which is
// inconsistent as soon as lower exceeds 2.
func triangle(s *Session, lower int32) Node {
	return s.And(
		s.Upper(1, 0, dbm.RawOf(1, false)),
		s.Upper(2, 1, dbm.RawOf(1, false)),
		s.Lower(2, 0, dbm.LowerOf(lower, false)))
}

func TestReduceInconsistent(t *testing.T) {
	s := newSession(t, 3, 0)

	sat := s.Ref(triangle(s, 2))
	unsat := s.Ref(triangle(s, 5))

	require.NotEqual(t, s.False(), s.Reduce(sat))
	require.Equal(t, s.False(), s.Reduce(unsat))
	require.Equal(t, s.False(), s.BfReduce(unsat))
	require.NoError(t, s.Err())
}

func TestReduceTautology(t *testing.T) {
	s := newSession(t, 2, 0)

	// (x1 <= 5) \/ (x1 >= 3) covers the whole line.
	a := s.Upper(1, 0, dbm.RawOf(5, false))
	b := s.Lower(1, 0, dbm.LowerOf(3, false))
	c := s.Ref(s.Or(a, b))
	require.Equal(t, s.True(), s.Reduce(c))
}

func TestReduceIdempotent(t *testing.T) {
	s := newSession(t, 3, 1)

	union := s.Ref(s.Or(
		s.And(s.Upper(1, 0, dbm.RawOf(4, false)), s.Bddvar(3)),
		s.And(s.Interval(2, 0, dbm.LowerOf(1, false), dbm.RawOf(3, false)), triangle(s, 2))))

	once := s.Ref(s.Reduce(union))
	twice := s.Ref(s.Reduce(once))
	require.Equal(t, once, twice)
}

func TestBfAgreesWithTarjan(t *testing.T) {
	s := newSession(t, 3, 1)

	diagrams := []Node{
		triangle(s, 2),
		triangle(s, 5),
		s.Or(s.And(s.Upper(1, 0, dbm.RawOf(2, true)), s.Bddvar(3)),
			s.Interval(2, 1, dbm.LowerOf(0, false), dbm.RawOf(6, false))),
	}
	for _, c := range diagrams {
		c = s.Ref(c)
		bf := s.Ref(s.BfReduce(c))
		require.Equal(t, s.False(), s.Reduce(s.Xor(c, bf)))
		s.RecDeref(c)
		s.RecDeref(bf)
	}
}

func TestReduce2(t *testing.T) {
	s := newSession(t, 2, 0)

	// Two adjacent intervals of x1 with the same child merge into one.
	a := s.Interval(1, 0, dbm.LowerOf(0, false), dbm.RawOf(3, false))
	b := s.Interval(1, 0, dbm.LowerOf(3, true), dbm.RawOf(6, false))
	c := s.Ref(s.Or(a, b))
	merged := s.Ref(s.Reduce2(c))
	want := s.Ref(s.Interval(1, 0, dbm.LowerOf(0, false), dbm.RawOf(6, false)))
	require.True(t, s.Equiv(merged, want))
}
