// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package dbm

// Raw is the packed encoding of a clock-difference bound: the limit is
// shifted left by one and the least significant bit distinguishes weak
// bounds (bit set, <=) from strict ones (bit clear, <).
type Raw = int32

const (
	// LSInfinity is the "large infinity" sentinel. It is chosen so that a
	// saturating addition of two finite bounds can never reach it.
	LSInfinity Raw = 0x7FFFFFFE

	// LEZero is the raw encoding of the weak bound <= 0.
	LEZero Raw = 1
)

// RawOf packs a limit and a strictness flag into a raw bound.
func RawOf(limit int32, strict bool) Raw {
	if strict {
		return limit << 1
	}
	return limit<<1 | 1
}

// LowerOf packs a limit and a strictness flag into a raw lower bound.
// The strictness bit of the lower encoding is inverted with respect to
// the upper one, so that L2U and U2L are simple bit flips.
func LowerOf(limit int32, strict bool) Raw {
	if strict {
		return limit<<1 | 1
	}
	return limit << 1
}

// Bound returns the integer limit of a raw bound.
func Bound(b Raw) int32 { return b >> 1 }

// IsStrict reports whether a raw bound is strict (<).
func IsStrict(b Raw) bool { return b&1 == 0 }

// Add is the saturating sum of two raw bounds. The result is strict if
// either operand is strict.
func Add(a, b Raw) Raw {
	if a == LSInfinity || b == LSInfinity {
		return LSInfinity
	}
	return (a&^1 + b&^1) | (a & b & 1)
}

// L2U converts a lower bound to the equivalent upper bound on the
// mirrored difference. The strictness flips together with the sign.
func L2U(b Raw) Raw {
	if b == -LSInfinity {
		return LSInfinity
	}
	return (-(b &^ 1) | (b & 1)) ^ 1
}

// U2L is the inverse of L2U.
func U2L(b Raw) Raw {
	if b == LSInfinity {
		return -LSInfinity
	}
	return (-(b &^ 1) | (b & 1)) ^ 1
}
