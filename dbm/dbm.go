// Copyright (c) 2026 The zoneforge authors
//
// MIT License

// Package dbm implements the subset of Difference-Bound-Matrix
// operations needed by the decision-diagram bridge: initialisation,
// shortest-path closure, constraining, and the delay, past, free and
// update transformations. A DBM of dimension dim is a row-major slice
// of dim*dim raw bounds where entry (i,j) bounds xi - xj and clock 0 is
// the reference clock.
package dbm

// Constraint is a single bound xi - xj <~ Value.
type Constraint struct {
	I, J  uint32
	Value Raw
}

// New returns an unconstrained DBM of the given dimension (see Init).
func New(dim int) []Raw {
	d := make([]Raw, dim*dim)
	Init(d, dim)
	return d
}

// Init sets dbm to the set of all non-negative clock valuations: the
// diagonal and the first row are <= 0, everything else is unbounded.
func Init(dbm []Raw, dim int) {
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			dbm[i*dim+j] = LSInfinity
		}
		dbm[i] = LEZero
		dbm[i*dim+i] = LEZero
	}
}

// Copy copies src into dst.
func Copy(dst, src []Raw, dim int) {
	copy(dst[:dim*dim], src[:dim*dim])
}

// AreEqual reports whether two DBMs are identical entry for entry.
func AreEqual(a, b []Raw, dim int) bool {
	for k := 0; k < dim*dim; k++ {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the DBM has a negative cycle, witnessed by a
// diagonal entry below <= 0.
func IsEmpty(dbm []Raw, dim int) bool {
	for i := 0; i < dim; i++ {
		if dbm[i*dim+i] < LEZero {
			return true
		}
	}
	return false
}

// Close computes the shortest-path closure of the DBM and reports
// whether the result is non-empty.
func Close(dbm []Raw, dim int) bool {
	for k := 0; k < dim; k++ {
		for i := 0; i < dim; i++ {
			if dbm[i*dim+k] == LSInfinity {
				continue
			}
			for j := 0; j < dim; j++ {
				sum := Add(dbm[i*dim+k], dbm[k*dim+j])
				if sum < dbm[i*dim+j] {
					dbm[i*dim+j] = sum
				}
			}
		}
	}
	return !IsEmpty(dbm, dim)
}

// Constrain tightens the bound on xi - xj and restores closure. It
// reports whether the DBM is still non-empty.
func Constrain(dbm []Raw, dim int, i, j uint32, value Raw) bool {
	if value >= dbm[int(i)*dim+int(j)] {
		return !IsEmpty(dbm, dim)
	}
	dbm[int(i)*dim+int(j)] = value
	return Close(dbm, dim)
}

// ConstrainN applies a batch of constraints, closing once at the end.
func ConstrainN(dbm []Raw, dim int, cons []Constraint) bool {
	tightened := false
	for _, c := range cons {
		if c.Value < dbm[int(c.I)*dim+int(c.J)] {
			dbm[int(c.I)*dim+int(c.J)] = c.Value
			tightened = true
		}
	}
	if !tightened {
		return !IsEmpty(dbm, dim)
	}
	return Close(dbm, dim)
}

// Up removes the upper bounds on all clocks (delay). The DBM stays
// closed.
func Up(dbm []Raw, dim int) {
	for i := 1; i < dim; i++ {
		dbm[i*dim] = LSInfinity
	}
}

// Down lowers the lower bound of every clock to zero (inverse delay).
// Row 0 is recomputed as the minimum over the incoming bounds so the
// DBM stays closed.
func Down(dbm []Raw, dim int) {
	for j := 1; j < dim; j++ {
		bnd := LEZero
		for i := 1; i < dim; i++ {
			if dbm[i*dim+j] < bnd {
				bnd = dbm[i*dim+j]
			}
		}
		dbm[j] = bnd
	}
}

// FreeClock removes every constraint on clock k.
func FreeClock(dbm []Raw, dim int, k int) {
	for i := 0; i < dim; i++ {
		if i != k {
			dbm[k*dim+i] = LSInfinity
			dbm[i*dim+k] = dbm[i*dim]
		}
	}
}

// UpdateValue assigns the constant value v to clock k.
func UpdateValue(dbm []Raw, dim int, k int, v int32) {
	pos := RawOf(v, false)
	neg := RawOf(-v, false)
	for j := 0; j < dim; j++ {
		if j != k {
			dbm[k*dim+j] = Add(pos, dbm[j])
			dbm[j*dim+k] = Add(dbm[j*dim], neg)
		}
	}
	dbm[k*dim+k] = LEZero
}

// IsValid reports whether the DBM is closed and non-empty.
func IsValid(dbm []Raw, dim int) bool {
	if IsEmpty(dbm, dim) {
		return false
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				if Add(dbm[i*dim+k], dbm[k*dim+j]) < dbm[i*dim+j] {
					return false
				}
			}
		}
	}
	return true
}
