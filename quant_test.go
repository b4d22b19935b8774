// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

func TestExistBoolean(t *testing.T) {
	s := newSession(t, 2, 2)

	zone := s.Upper(1, 0, dbm.RawOf(5, false))
	c := s.Ref(s.And(zone, s.Bddvar(1)))

	// Quantifying the boolean leaves the zone.
	res := s.Ref(s.Exist(c, []int32{1}, nil))
	require.True(t, s.Equiv(res, zone))

	// Quantifying an untouched variable is the identity.
	same := s.Ref(s.Exist(c, []int32{2}, nil))
	require.True(t, s.Equiv(same, c))
}

func TestExistBooleanBothBranches(t *testing.T) {
	s := newSession(t, 0, 2)

	// (b0 /\ b1) \/ (!b0 /\ !b1), quantified over b0, covers both b1
	// polarities.
	c := s.Ref(s.Or(
		s.And(s.Bddvar(0), s.Bddvar(1)),
		s.And(s.Bddnvar(0), s.Bddnvar(1))))
	res := s.Ref(s.Exist(c, []int32{0}, nil))
	require.Equal(t, s.True(), res)
}

func TestExistClock(t *testing.T) {
	s := newSession(t, 3, 0)

	// x1 <= 5 /\ x2 - x1 <= 3: dropping x1 must keep the consequence
	// x2 <= 8.
	c := s.Ref(s.And(
		s.Upper(1, 0, dbm.RawOf(5, false)),
		s.Upper(2, 1, dbm.RawOf(3, false))))
	res := s.Ref(s.Exist(c, nil, []int32{1}))
	want := s.Ref(s.Upper(2, 0, dbm.RawOf(8, false)))
	require.True(t, s.Equiv(res, want))
	require.NoError(t, s.Err())
}

func TestExistOpIDsDoNotLeak(t *testing.T) {
	s := newSession(t, 2, 1)

	c := s.Ref(s.And(s.Upper(1, 0, dbm.RawOf(5, false)), s.Bddvar(1)))
	first := s.Ref(s.Exist(c, []int32{1}, nil))

	// A second top-level call with different arguments must not reuse
	// entries stamped by the first one.
	second := s.Ref(s.Exist(c, nil, nil))
	require.True(t, s.Equiv(second, c))
	require.False(t, s.Equiv(first, second))
}

func TestReplaceClock(t *testing.T) {
	s := newSession(t, 3, 1)

	levelMap := make([]int32, s.LevelCount())
	for k := range levelMap {
		levelMap[k] = int32(k)
	}

	// Swap clocks 1 and 2.
	clockMap := []int32{0, 2, 1}

	c := s.Ref(s.Upper(1, 0, dbm.RawOf(5, false)))
	res := s.Ref(s.Replace(c, levelMap, clockMap))
	want := s.Ref(s.Upper(2, 0, dbm.RawOf(5, false)))
	require.True(t, s.Equiv(res, want))
}

func TestReplaceBoolean(t *testing.T) {
	s := newSession(t, 2, 3)

	levelMap := make([]int32, s.LevelCount())
	for k := range levelMap {
		levelMap[k] = int32(k)
	}
	// Move the variable at level 1 to level 2.
	levelMap[1] = 2
	clockMap := []int32{0, 1}

	c := s.Ref(s.And(s.Bddvar(1), s.Upper(1, 0, dbm.RawOf(2, false))))
	res := s.Ref(s.Replace(c, levelMap, clockMap))
	want := s.Ref(s.And(s.Bddvar(2), s.Upper(1, 0, dbm.RawOf(2, false))))
	require.True(t, s.Equiv(res, want))
}

func TestReplaceValidation(t *testing.T) {
	s := newSession(t, 2, 1)
	c := s.Bddvar(1)
	require.Equal(t, s.False(), s.Replace(c, []int32{0}, []int32{0, 1}))
	require.Error(t, s.Err())
}
