// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

func newSession(t *testing.T, clocks, bools int32, options ...func(*configs)) *Session {
	t.Helper()
	s, err := New(options...)
	require.NoError(t, err)
	t.Cleanup(s.Done)
	if clocks > 0 {
		s.AddClocks(clocks)
	}
	if bools > 0 {
		s.AddBddvar(bools)
	}
	return s
}

func TestLevelLayout(t *testing.T) {
	s := newSession(t, 4, 3)

	// 4 clocks give one level per ordered pair, booleans follow.
	require.Equal(t, int32(6+3), s.LevelCount())
	require.Equal(t, int32(3), s.BddLevelCount())
	require.Equal(t, int32(4), s.Clocks())

	var levelTests = []struct {
		level  int32
		typ    int32
		c1, c2 int32
	}{
		{0, TypeCDD, 1, 0},
		{1, TypeCDD, 2, 0},
		{2, TypeCDD, 2, 1},
		{3, TypeCDD, 3, 0},
		{4, TypeCDD, 3, 1},
		{5, TypeCDD, 3, 2},
		{6, TypeBDD, -1, -1},
		{8, TypeBDD, -1, -1},
	}
	for _, tt := range levelTests {
		info, err := s.Levelinfo(tt.level)
		require.NoError(t, err)
		if info.Type != tt.typ || info.Clock1 != tt.c1 || info.Clock2 != tt.c2 {
			t.Errorf("level %d: expected (%d,%d,%d), actual (%d,%d,%d)",
				tt.level, tt.typ, tt.c1, tt.c2, info.Type, info.Clock1, info.Clock2)
		}
	}
	if info, _ := s.Levelinfo(2); info.Diff != difference(2, 1) {
		t.Errorf("cached diff encoding is wrong: %d", info.Diff)
	}
}

func TestIncrementalClocks(t *testing.T) {
	s := newSession(t, 2, 0)
	require.Equal(t, int32(1), s.LevelCount())
	s.AddClocks(1)
	require.Equal(t, int32(3), s.LevelCount())
	info, err := s.Levelinfo(1)
	require.NoError(t, err)
	require.Equal(t, int32(2), info.Clock1)
	require.Equal(t, int32(0), info.Clock2)
}

func TestHashConsUniqueness(t *testing.T) {
	s := newSession(t, 3, 2)

	a := s.Upper(1, 0, dbm.RawOf(5, false))
	b := s.Upper(1, 0, dbm.RawOf(5, false))
	require.Equal(t, a, b)

	v1 := s.Bddvar(3)
	v2 := s.Bddvar(3)
	require.Equal(t, v1, v2)

	c := s.Interval(2, 1, dbm.LowerOf(1, false), dbm.RawOf(4, true))
	d := s.Interval(2, 1, dbm.LowerOf(1, false), dbm.RawOf(4, true))
	require.Equal(t, c, d)
}

func TestDoubleNegation(t *testing.T) {
	s := newSession(t, 2, 1)
	for _, n := range []Node{s.True(), s.False(), s.Bddvar(1), s.Upper(1, 0, dbm.RawOf(3, false))} {
		if n.Neg().Neg() != n {
			t.Errorf("double negation of %d is not the identity", n)
		}
	}
	require.Equal(t, s.True(), s.False().Neg())
}

func TestVarAndNegVarIsFalse(t *testing.T) {
	s := newSession(t, 0, 2)
	v := s.Bddvar(0)
	require.Equal(t, s.False(), s.Apply(v, v.Neg(), OpAnd))
	require.Equal(t, s.True(), s.Apply(v, v.Neg(), OpXor))
}

func TestRehash(t *testing.T) {
	s := newSession(t, 2, 0)

	rehashed := 0
	s.PostRehashHook(func(st *RehashStat) {
		rehashed++
		if st.Keys > st.Max {
			t.Errorf("rehash left keys (%d) above the new bound (%d)", st.Keys, st.Max)
		}
	})

	// Force keys past twice the initial bound: one sub-table of the
	// arity-2 manager holds one node per distinct bound.
	const count = 2100
	handles := make([]Node, count)
	for k := 0; k < count; k++ {
		handles[k] = s.Ref(s.Upper(1, 0, dbm.RawOf(int32(k), false)))
	}
	require.GreaterOrEqual(t, rehashed, 2)

	// Every interned node must remain discoverable after rehashing.
	for k := 0; k < count; k++ {
		require.Equal(t, handles[k], s.Upper(1, 0, dbm.RawOf(int32(k), false)))
	}
	require.NoError(t, s.Err())
}

func TestGbcHighChurn(t *testing.T) {
	s := newSession(t, 2, 0)

	collected := 0
	s.PostGbcHook(func(st *GbcStat) {
		collected++
		if st.Freenodes < 0 || st.Nodes < st.Freenodes {
			t.Errorf("implausible GC stats: %+v", st)
		}
	})

	held := s.Ref(s.Interval(1, 0, dbm.LowerOf(1, false), dbm.RawOf(2, false)))

	// Churn through short-lived nodes until the first chunk runs out;
	// allocation must then prefer collecting the dead nodes over
	// growing the arena.
	for k := int32(10); k < 4000; k++ {
		n := s.Ref(s.Upper(1, 0, dbm.RawOf(k, false)))
		s.RecDeref(n)
	}

	require.GreaterOrEqual(t, collected, 1)
	require.Equal(t, int32(1), s.Nodecount(held))
	require.NoError(t, s.Err())
}

func TestExtraTerminals(t *testing.T) {
	s := newSession(t, 0, 1)
	s.AddTautologies(2)

	t0 := s.ExtraTerminal(0)
	t1 := s.ExtraTerminal(1)
	require.NotEqual(t, t0, t1)
	require.Equal(t, int32(0), s.TautologyID(t0))
	require.Equal(t, int32(1), s.TautologyID(t1))

	// An extra terminal behaves as true in conjunctions but keeps its
	// identity when it dominates.
	require.Equal(t, t0, s.Apply(t0, s.True(), OpAnd))
	require.Equal(t, s.False(), s.Apply(t0, t0, OpXor))
	require.Equal(t, t0.Neg(), s.Apply(t0.Neg(), s.Bddvar(0), OpAnd))
	require.True(t, s.evalTrue(t0))
	require.True(t, s.evalFalse(t0.Neg()))
}

func TestErrorLatching(t *testing.T) {
	s := newSession(t, 2, 0)
	require.NoError(t, s.Err())

	s.Bddvar(99)
	require.Error(t, s.Err())
	require.True(t, s.Errored())

	// Later failures do not overwrite the first code: an out-of-range
	// extra terminal would latch ErrRange.
	s.ExtraTerminal(0)
	require.Equal(t, int32(ErrVar), s.errorcond)
}

func TestEnsureRunning(t *testing.T) {
	s := EnsureRunning()
	require.True(t, s.IsRunning())
	require.Same(t, s, EnsureRunning())
}
