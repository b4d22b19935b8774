// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// Node is a handle to a decision-diagram node. Bit 0 encodes semantic
// negation; the remaining bits index the node record inside the
// session. Negating a diagram therefore costs a single xor, and the
// normal form keeps the first child of every node non-negated so that
// two handles are equal iff the diagrams are structurally equal modulo
// global negation.
type Node uint32

// Neg returns the negation of the diagram rooted at n.
func (n Node) Neg() Node { return n ^ 1 }

// rglr strips the negation bit off a handle.
func (n Node) rglr() Node { return n &^ 1 }

// mask returns the negation bit of a handle.
func (n Node) mask() Node { return n & 1 }

// negCond negates n when mask is 1.
func negCond(n, mask Node) Node { return n ^ mask }

// id returns the record index of a handle.
func (n Node) id() uint32 { return uint32(n) >> 1 }

func mkNode(id uint32, mask Node) Node { return Node(id<<1) | mask }

// Elem is one out-edge of a CDD node: the child applies when the clock
// difference lies in (previous upper, Bnd].
type Elem struct {
	Child Node
	Bnd   dbm.Raw
}

// ddNode is a node record. BDD nodes use low/high, CDD nodes use elem;
// terminal records use neither. The collision chain of the sub-tables
// is threaded through next.
type ddNode struct {
	next  uint32
	level int32
	ref   int32
	flag  int32
	man   int32 // owning manager, -1 for terminals
	xid   int32 // extra-terminal id, -1 otherwise
	low   Node
	high  Node
	elem  []Elem
}

const (
	// falseID is the record index of the single terminal node.
	falseID = 1

	cddFalse Node = falseID << 1
	cddTrue  Node = cddFalse | 1
)

// flag bits
const markon = 0x1

func (s *Session) node(n Node) *ddNode { return &s.nodes[n.id()] }

func (s *Session) level(n Node) int32 { return s.nodes[n.id()].level }

// isTerminal reports whether n is the true/false terminal or one of the
// extra terminals.
func (s *Session) isTerminal(n Node) bool { return s.nodes[n.id()].level == _MAXLEVEL }

// isTFTerminal reports whether n is the true or false terminal proper,
// extra terminals excluded.
func (s *Session) isTFTerminal(n Node) bool { return n.id() == falseID }

// isExtraTerminal reports whether n is one of the tautology terminals.
func (s *Session) isExtraTerminal(n Node) bool {
	return n.id() != falseID && s.nodes[n.id()].level == _MAXLEVEL
}

// evalTrue reports whether n evaluates to true, counting non-negated
// extra terminals as true.
func (s *Session) evalTrue(n Node) bool {
	return n == cddTrue || (s.isExtraTerminal(n) && n.mask() == 0)
}

// evalFalse mirrors evalTrue for the false polarity.
func (s *Session) evalFalse(n Node) bool {
	return n == cddFalse || (s.isExtraTerminal(n) && n.mask() == 1)
}

// TautologyID returns the id of an extra terminal.
func (s *Session) TautologyID(n Node) int32 { return s.nodes[n.id()].xid }

func (s *Session) ismarked(n Node) bool { return s.nodes[n.id()].flag&markon != 0 }
func (s *Session) marknode(n Node)      { s.nodes[n.id()].flag |= markon }
func (s *Session) resetmark(n Node)     { s.nodes[n.id()].flag &^= markon }

// bddLow returns the low child of a BDD node, pushing the negation of
// the handle down onto the edge.
func (s *Session) bddLow(n Node) Node {
	return negCond(s.nodes[n.id()].low, n.mask())
}

// bddHigh mirrors bddLow for the high child.
func (s *Session) bddHigh(n Node) Node {
	return negCond(s.nodes[n.id()].high, n.mask())
}

// iterator walks the interval partition of a CDD node, applying the
// negation of the handle to every child.
type iterator struct {
	low  dbm.Raw
	neg  Node
	elem []Elem
	k    int
}

func (s *Session) iter(n Node) iterator {
	return iterator{low: -dbm.LSInfinity, neg: n.mask(), elem: s.nodes[n.id()].elem}
}

func (it *iterator) atEnd() bool    { return it.low == dbm.LSInfinity }
func (it *iterator) lower() dbm.Raw { return it.low }
func (it *iterator) upper() dbm.Raw { return it.elem[it.k].Bnd }
func (it *iterator) child() Node    { return negCond(it.elem[it.k].Child, it.neg) }
func (it *iterator) next()          { it.low = it.elem[it.k].Bnd; it.k++ }
