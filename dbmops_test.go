// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

// zone builds a closed DBM of dimension dim from constraints.
func zone(t *testing.T, dim int, cons ...dbm.Constraint) []dbm.Raw {
	t.Helper()
	d := dbm.New(dim)
	require.True(t, dbm.ConstrainN(d, dim, cons))
	require.True(t, dbm.IsValid(d, dim))
	return d
}

func TestFromDBMUnique(t *testing.T) {
	s := newSession(t, 3, 0)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)})

	a := s.Ref(s.FromDBM(d, 3))
	b := s.Ref(s.FromDBM(d, 3))
	require.Equal(t, a, b)
}

func TestContainsOwnZone(t *testing.T) {
	s := newSession(t, 3, 0)

	zones := [][]dbm.Raw{
		zone(t, 3, dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)}),
		zone(t, 3,
			dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(7, true)},
			dbm.Constraint{I: 0, J: 2, Value: dbm.RawOf(-2, false)},
			dbm.Constraint{I: 2, J: 1, Value: dbm.RawOf(3, false)}),
		// Only a difference bound: the mirrored entry stays unbounded,
		// which exercises the negated-edge splice.
		zone(t, 3, dbm.Constraint{I: 2, J: 1, Value: dbm.RawOf(3, false)}),
		dbm.New(3),
	}
	for i, d := range zones {
		c := s.Ref(s.FromDBM(d, 3))
		if !s.Contains(c, d, 3) {
			t.Errorf("zone %d is not contained in its own diagram", i)
		}
		s.RecDeref(c)
	}
}

func TestExtractRoundTrip(t *testing.T) {
	s := newSession(t, 3, 0)

	d := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)},
		dbm.Constraint{I: 2, J: 0, Value: dbm.RawOf(6, false)},
		dbm.Constraint{I: 0, J: 2, Value: dbm.RawOf(-2, false)})

	c := s.Ref(s.FromDBM(d, 3))
	red := s.Ref(s.Reduce(c))

	out := make([]dbm.Raw, 9)
	rest := s.Ref(s.ExtractDBM(red, out, 3))

	if diff := cmp.Diff(d, out); diff != "" {
		t.Errorf("extracted zone differs (-want +got):\n%s", diff)
	}
	require.Equal(t, s.False(), s.Reduce(rest))
}

func TestIntersection(t *testing.T) {
	s := newSession(t, 3, 0)

	d1 := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-1, false)},
		dbm.Constraint{I: 2, J: 0, Value: dbm.RawOf(6, false)},
		dbm.Constraint{I: 0, J: 2, Value: dbm.RawOf(-2, false)})
	d2 := zone(t, 3,
		dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(8, false)},
		dbm.Constraint{I: 0, J: 1, Value: dbm.RawOf(-3, false)},
		dbm.Constraint{I: 2, J: 0, Value: dbm.RawOf(4, false)})

	// Intersection computed on the DBM side.
	d3 := make([]dbm.Raw, 9)
	dbm.Copy(d3, d1, 3)
	for k := range d3 {
		if d2[k] < d3[k] {
			d3[k] = d2[k]
		}
	}
	require.True(t, dbm.Close(d3, 3))

	c := s.Ref(s.Apply(s.Ref(s.FromDBM(d1, 3)), s.Ref(s.FromDBM(d2, 3)), OpAnd))
	require.True(t, s.Contains(c, d3, 3))

	out := make([]dbm.Raw, 9)
	red := s.Ref(s.Reduce(c))
	rest := s.Ref(s.ExtractDBM(red, out, 3))
	if diff := cmp.Diff(d3, out); diff != "" {
		t.Errorf("intersection differs (-want +got):\n%s", diff)
	}
	require.Equal(t, s.False(), s.Reduce(rest))
}

func TestExtractBDD(t *testing.T) {
	s := newSession(t, 2, 2)

	d := zone(t, 2, dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(5, false)})
	bools := s.Ref(s.And(s.Bddvar(1), s.Bddnvar(2)))
	c := s.Ref(s.And(s.FromDBM(d, 2), bools))

	red := s.Ref(s.Reduce(c))
	require.Equal(t, bools, s.ExtractBDD(red, 2))
}

func TestRemoveNegative(t *testing.T) {
	s := newSession(t, 2, 0)

	// An unconstrained diagram keeps only the non-negative half.
	nn := s.Ref(s.RemoveNegative(s.True()))
	want := s.Ref(s.Interval(1, 0, dbm.LowerOf(0, false), Inf))
	require.True(t, s.Equiv(nn, want))

	// A zone from a DBM is already non-negative.
	d := zone(t, 2, dbm.Constraint{I: 1, J: 0, Value: dbm.RawOf(3, false)})
	c := s.Ref(s.FromDBM(d, 2))
	require.True(t, s.Equiv(c, s.RemoveNegative(c)))
}
