// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"github.com/pkg/errors"
)

// Error codes. The first failure observed by the library is latched in
// the session; every later operation short-circuits until the session
// is re-initialised.
const (
	ErrMemory        = -1  // out of memory
	ErrVar           = -2  // unknown variable
	ErrRange         = -3  // variable value out of range
	ErrDeref         = -4  // removing external reference to unknown node
	ErrRunning       = -5  // session initialised twice without Done
	ErrFile          = -6  // file operation failed
	ErrFormat        = -7  // incorrect file format
	ErrOrder         = -8  // variables not in order for vector based functions
	ErrBreak         = -9  // user called break
	ErrClknum        = -10 // different number of variables for vector pair
	ErrNodes         = -11 // maximum number of nodes below current allocation
	ErrOp            = -12 // unknown operator
	ErrClkset        = -13 // illegal variable set
	ErrOverlap       = -14 // overlapping variable blocks
	ErrDeccnum       = -15 // trying to decrease the number of variables
	ErrReplace       = -16 // replacing to already existing variables
	ErrNodenum       = -17 // number of nodes reached user defined maximum
	ErrIllcdd        = -18 // illegal cdd argument
	ErrStackOverflow = -19 // reference stack overflow
	ErrNode          = -20 // invalid node type
	ErrMaxsize       = -21 // node larger than maximum allowed
)

var errorMessages = map[int32]string{
	ErrMemory:        "out of memory",
	ErrVar:           "unknown variable",
	ErrRange:         "variable value out of range",
	ErrDeref:         "removing external reference to unknown node",
	ErrRunning:       "session already running",
	ErrFile:          "file operation failed",
	ErrFormat:        "incorrect file format",
	ErrOrder:         "variables not in order",
	ErrBreak:         "user called break",
	ErrClknum:        "different number of variables for vector pair",
	ErrNodes:         "maximum number of nodes below current allocation",
	ErrOp:            "unknown operator",
	ErrClkset:        "illegal variable set",
	ErrOverlap:       "overlapping variable blocks",
	ErrDeccnum:       "trying to decrease the number of variables",
	ErrReplace:       "replacing to already existing variables",
	ErrNodenum:       "maximum node count reached",
	ErrIllcdd:        "illegal cdd argument",
	ErrStackOverflow: "reference stack overflow",
	ErrNode:          "invalid node type",
	ErrMaxsize:       "node larger than maximum allowed arity",
}

// seterror latches the first error code seen. Later codes are dropped
// so that the root cause survives a cascade of failing operations.
func (s *Session) seterror(code int32) int32 {
	if s.errorcond == 0 {
		s.errorcond = code
		s.logger.Errorf("cdd error: %s (%d)", errorMessages[code], code)
	}
	return code
}

// Err returns the latched error condition of the session, or nil.
func (s *Session) Err() error {
	if s.errorcond == 0 {
		return nil
	}
	msg, ok := errorMessages[s.errorcond]
	if !ok {
		return errors.Errorf("cdd: unknown error condition %d", s.errorcond)
	}
	return errors.Wrapf(errors.New(msg), "cdd: error condition %d", s.errorcond)
}

// Errored reports whether an error condition has been latched.
func (s *Session) Errored() bool { return s.errorcond != 0 }
