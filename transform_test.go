// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

func TestDelayTerminals(t *testing.T) {
	s := newSession(t, 3, 1)
	require.Equal(t, s.False(), s.Delay(s.False()))
	require.Equal(t, s.True(), s.Delay(s.True()))
	require.Equal(t, s.False(), s.Past(s.False()))

	// Purely boolean diagrams are fixed points as well.
	b := s.Ref(s.Bddvar(3))
	require.Equal(t, b, s.Delay(b))
}

func TestDelayZone(t *testing.T) {
	s := newSession(t, 3, 0)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)},
		dbm.Constraint{I: 2, J: 0, Value: dbm.RawOf(4, false)})

	c := s.Ref(s.FromDBM(d, 3))
	delayed := s.Ref(s.Delay(c))

	up := make([]dbm.Raw, 9)
	dbm.Copy(up, d, 3)
	dbm.Up(up, 3)
	want := s.Ref(s.FromDBM(up, 3))
	require.True(t, s.Equiv(delayed, want))
}

func TestPastZone(t *testing.T) {
	s := newSession(t, 3, 0)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-2, false)})

	c := s.Ref(s.FromDBM(d, 3))
	past := s.Ref(s.Past(c))

	down := make([]dbm.Raw, 9)
	dbm.Copy(down, d, 3)
	dbm.Down(down, 3)
	want := s.Ref(s.FromDBM(down, 3))
	require.True(t, s.Equiv(past, want))
}

func TestDelayKeepsBoolTail(t *testing.T) {
	s := newSession(t, 2, 1)

	d := zone(t, 2,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(3, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)})
	b := s.Bddvar(1)
	c := s.Ref(s.And(s.FromDBM(d, 2), b))

	delayed := s.Ref(s.Delay(c))

	up := make([]dbm.Raw, 4)
	dbm.Copy(up, d, 2)
	dbm.Up(up, 2)
	want := s.Ref(s.And(s.FromDBM(up, 2), b))
	require.True(t, s.Equiv(delayed, want))
}

func TestDelayInvariant(t *testing.T) {
	s := newSession(t, 2, 0)

	d := zone(t, 2,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(3, false)})
	c := s.Ref(s.FromDBM(d, 2))
	inv := s.Ref(s.Upper(1, 0, dbm.RawOf(10, false)))

	res := s.Ref(s.DelayInvariant(c, inv))

	up := make([]dbm.Raw, 4)
	dbm.Copy(up, d, 2)
	dbm.Up(up, 2)
	want := s.Ref(s.And(s.FromDBM(up, 2), inv))
	require.True(t, s.Equiv(res, want))
}

func TestApplyResetEmptyIsRemoveNegative(t *testing.T) {
	s := newSession(t, 3, 1)

	c := s.Ref(s.Or(
		s.And(s.Upper(1, 0, dbm.RawOf(4, false)), s.Bddvar(3)),
		s.Interval(2, 0, dbm.LowerOf(1, false), dbm.RawOf(6, false))))

	reset := s.Ref(s.ApplyReset(c, nil, nil, nil, nil))
	want := s.Ref(s.RemoveNegative(c))
	require.True(t, s.Equiv(reset, want))
}

func TestTransitionTrueGuardNoReset(t *testing.T) {
	s := newSession(t, 2, 1)

	c := s.Ref(s.And(s.Upper(1, 0, dbm.RawOf(4, false)), s.Bddvar(1)))
	res := s.Ref(s.Transition(c, s.True(), nil, nil, nil, nil))
	want := s.Ref(s.RemoveNegative(c))
	require.True(t, s.Equiv(res, want))
}

func TestApplyResetClock(t *testing.T) {
	s := newSession(t, 3, 0)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)},
		dbm.Constraint{I: 2, J: 0, Value: dbm.RawOf(6, false)})

	c := s.Ref(s.FromDBM(d, 3))
	res := s.Ref(s.ApplyReset(c, []int32{1}, []int32{0}, nil, nil))

	upd := make([]dbm.Raw, 9)
	dbm.Copy(upd, d, 3)
	dbm.UpdateValue(upd, 3, 1, 0)
	want := s.Ref(s.FromDBM(upd, 3))
	require.True(t, s.Equiv(res, want))
}

func TestApplyResetBoolean(t *testing.T) {
	s := newSession(t, 2, 2)

	c := s.Ref(s.And(s.Upper(1, 0, dbm.RawOf(5, false)), s.Bddnvar(1)))
	res := s.Ref(s.ApplyReset(c, nil, nil, []int32{1}, []int32{1}))
	want := s.Ref(s.RemoveNegative(s.And(s.Upper(1, 0, dbm.RawOf(5, false)), s.Bddvar(1))))
	require.True(t, s.Equiv(res, want))
}

func TestTransitionBack(t *testing.T) {
	s := newSession(t, 2, 1)

	// Backwards over a reset of x1: the target x1 = 0 pulls back to any
	// valuation satisfying the guard.
	target := s.Ref(s.Upper(1, 0, dbm.RawOf(0, false)))
	update := s.Ref(s.Upper(1, 0, dbm.RawOf(0, false)))
	guard := s.Ref(s.Upper(1, 0, dbm.RawOf(9, false)))

	res := s.Ref(s.TransitionBack(target, guard, update, []int32{1}, nil))
	want := s.Ref(s.RemoveNegative(guard))
	require.True(t, s.Equiv(res, want))

	// A contradictory update yields the empty diagram.
	bad := s.Ref(s.TransitionBack(target, guard, s.Lower(1, 0, dbm.LowerOf(4, false)), []int32{1}, nil))
	require.Equal(t, s.False(), s.Reduce(bad))
}

func TestTransitionBackPast(t *testing.T) {
	s := newSession(t, 2, 0)

	target := s.Ref(s.Interval(1, 0, dbm.LowerOf(2, false), dbm.RawOf(4, false)))
	guard := s.Ref(s.Interval(1, 0, dbm.LowerOf(2, false), dbm.RawOf(4, false)))
	update := s.Ref(s.True())

	res := s.Ref(s.TransitionBackPast(target, guard, update, nil, nil))
	want := s.Ref(s.Past(s.Ref(s.RemoveNegative(s.And(target, guard)))))
	require.True(t, s.Equiv(res, want))
}

func TestPredtProperties(t *testing.T) {
	s := newSession(t, 3, 2)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(8, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-4, false)})
	target := s.Ref(s.And(s.FromDBM(d, 3), s.Bddvar(3)))

	// Avoiding everything leaves nothing.
	require.Equal(t, s.False(), s.Predt(target, s.True()))

	// Avoiding nothing gives the full timed past.
	free := s.Ref(s.Predt(target, s.False()))
	past := s.Ref(s.Past(target)) // includes the boolean tail
	require.True(t, s.Equiv(free, past))

	// Avoiding the target itself leaves nothing either.
	require.Equal(t, s.False(), s.Predt(target, target))
}

func TestPredtSplitsOnBooleans(t *testing.T) {
	s := newSession(t, 2, 2)

	d := zone(t, 2,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(10, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-6, false)})
	target := s.Ref(s.And(s.FromDBM(d, 2), s.Bddvar(1)))

	ds := zone(t, 2,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(4, false)})
	safe := s.Ref(s.And(s.FromDBM(ds, 2), s.Bddvar(2)))

	res := s.Ref(s.Predt(target, safe))

	// Where the safe predicate cannot hold (b2 false) the whole past of
	// the target remains.
	down := make([]dbm.Raw, 4)
	dbm.Copy(down, d, 2)
	dbm.Down(down, 2)
	wantNoSafe := s.Ref(s.And(s.FromDBM(down, 2), s.Bddvar(1), s.Bddnvar(2)))
	gotNoSafe := s.Ref(s.And(res, s.Bddnvar(2)))
	require.True(t, s.Equiv(gotNoSafe, wantNoSafe))

	// Where safe can hold, its down-closure is subtracted.
	sdown := make([]dbm.Raw, 4)
	dbm.Copy(sdown, ds, 2)
	dbm.Down(sdown, 2)
	avoid := s.Ref(s.FromDBM(sdown, 2))
	wantSafe := s.Ref(s.And(s.FromDBM(down, 2), avoid.Neg(), s.Bddvar(1), s.Bddvar(2)))
	gotSafe := s.Ref(s.And(res, s.Bddvar(2)))
	require.True(t, s.Equiv(gotSafe, wantSafe))
}
