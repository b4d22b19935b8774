// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"fmt"
	"io"
	"os"

	"github.com/zoneforge/cdd/dbm"
)

// Fprintdot writes the diagram to w in Graphviz dot format. Terminal
// nodes are squares, boolean nodes circles and clock-difference nodes
// octagons; edges to the false terminal are omitted for
// clock-difference nodes since there can be many per level. Negated
// nodes print in red. With pushNegate set, edges reached through an odd
// number of negations are flipped onto the opposite terminal so the
// reached terminal is the semantic value; without it the diagram prints
// as-is and the value is recovered by counting red nodes along a path.
func (s *Session) Fprintdot(w io.Writer, node Node, pushNegate bool) error {
	if _, err := fmt.Fprintln(w, "digraph G {"); err != nil {
		return err
	}
	fmt.Fprintf(w, "\"t1\" [shape=box, label=\"1\"];\n")
	fmt.Fprintf(w, "\"t0\" [shape=box, label=\"0\"];\n")
	for _, x := range s.xterms {
		fmt.Fprintf(w, "\"t1x%d\" [shape=box, label=\"T%d\"];\n", s.TautologyID(x), s.TautologyID(x))
	}
	visited := make(map[[2]uint32]bool)
	s.fprintdotRec(w, node, pushNegate, false, visited)
	if !s.isTerminal(node) {
		fmt.Fprintf(w, "\"root\" [shape=point];\n")
		fmt.Fprintf(w, "\"root\" -> \"%s\";\n", s.dotName(node, false))
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// Printdot writes the diagram to standard output.
func (s *Session) Printdot(node Node, pushNegate bool) error {
	return s.Fprintdot(os.Stdout, node, pushNegate)
}

// dotName keys one printed vertex per (regular node, parity) pair.
func (s *Session) dotName(n Node, negated bool) string {
	if s.isTFTerminal(n) {
		if n == cddTrue {
			return "t1"
		}
		return "t0"
	}
	if s.isExtraTerminal(n) {
		return fmt.Sprintf("t1x%d", s.TautologyID(n))
	}
	parity := 0
	if negated {
		parity = 1
	}
	return fmt.Sprintf("n%d_%d", n.id(), parity)
}

func printInterval(w io.Writer, lower, upper dbm.Raw) {
	if lower == -Inf {
		fmt.Fprintf(w, "]-INF;")
	} else {
		lu := dbm.L2U(lower)
		open := "["
		if dbm.IsStrict(lu) {
			open = "]"
		}
		fmt.Fprintf(w, "%s%d;", open, -dbm.Bound(lu))
	}
	if upper == Inf {
		fmt.Fprintf(w, "INF[")
	} else {
		bracket := "]"
		if dbm.IsStrict(upper) {
			bracket = "["
		}
		fmt.Fprintf(w, "%d%s", dbm.Bound(upper), bracket)
	}
}

func (s *Session) fprintdotRec(w io.Writer, r Node, flip, negated bool, visited map[[2]uint32]bool) {
	if s.isTerminal(r) {
		return
	}

	parity := uint32(0)
	if negated {
		parity = 1
	}
	key := [2]uint32{r.id(), parity}
	if visited[key] {
		return
	}
	visited[key] = true

	info := s.info(r)
	name := s.dotName(r, negated)

	if info.Type == TypeBDD {
		nd := s.node(r)
		childNeg := negated != (r.mask() == 1)

		color := "black"
		if r.mask() == 1 {
			color = "red"
		}
		fmt.Fprintf(w, "\"%s\" [shape=circle, color=%s, label=\"b%d\"];\n", name, color, nd.level)

		printEdge := func(child Node, style string) {
			if flip && childNeg && s.isTerminal(child) {
				fmt.Fprintf(w, "\"%s\" -> \"%s\" [style=%s];\n", name, s.dotName(child.Neg(), false), style)
				return
			}
			fmt.Fprintf(w, "\"%s\" -> \"%s\" [style=%s];\n", name, s.dotName(child, childNeg), style)
		}
		printEdge(nd.high, "filled")
		printEdge(nd.low, "dashed")

		s.fprintdotRec(w, nd.high, flip, childNeg, visited)
		s.fprintdotRec(w, nd.low, flip, childNeg, visited)
		return
	}

	fmt.Fprintf(w, "\"%s\" [shape=octagon, label=\"x%d-x%d\"];\n", name, info.Clock1, info.Clock2)

	bnd := -Inf
	for _, e := range s.node(r).elem {
		child := e.Child
		if child != cddFalse {
			style := "filled"
			if child.mask() == 1 {
				style = "dashed"
			}
			fmt.Fprintf(w, "\"%s\" -> \"%s\" [style=%s, label=\"", name, s.dotName(child.rglr(), false), style)
			printInterval(w, bnd, e.Bnd)
			fmt.Fprintf(w, "\"];\n")
			s.fprintdotRec(w, child.rglr(), flip, false, visited)
		}
		bnd = e.Bnd
	}
}

// DumpNodes prints every live node of every manager, for debugging.
func (s *Session) DumpNodes(w io.Writer) {
	fmt.Fprintf(w, "terminal [level %d]\n", _MAXLEVEL)

	dump := func(man *nodeManager, cdd bool) {
		for _, tbl := range man.subtables {
			if tbl == nil {
				continue
			}
			for j := int32(0); j < tbl.buckets; j++ {
				for id := tbl.hash[j]; id != 0; id = s.nodes[id].next {
					if s.nodes[id].ref == 0 {
						continue
					}
					if cdd {
						info := s.levelinfo[s.nodes[id].level]
						fmt.Fprintf(w, "%d [level %d : %d-%d]\n", id, s.nodes[id].level, info.Clock1, info.Clock2)
					} else {
						fmt.Fprintf(w, "%d [level %d]\n", id, s.nodes[id].level)
					}
				}
			}
		}
	}

	dump(s.bddman, false)
	for _, man := range s.cddman {
		if man != nil {
			dump(man, true)
		}
	}
}

// Stats returns a textual summary of the session state.
func (s *Session) Stats() string {
	res := fmt.Sprintf("Levels:     %d\n", len(s.levelinfo))
	res += fmt.Sprintf("Clocks:     %d\n", s.clocknum)
	res += fmt.Sprintf("Booleans:   %d\n", s.varnum)
	res += fmt.Sprintf("Chunks:     %d\n", s.chunkcnt)
	res += fmt.Sprintf("# of GC:    %d\n", s.gbccnt)
	res += fmt.Sprintf("# of hash:  %d\n", s.rehashcnt)
	report := func(name string, man *nodeManager) string {
		return fmt.Sprintf("%s  alloc: %d / used: %d / dead: %d / free: %d\n",
			name, man.alloccnt, man.usedcnt, man.deadcnt, man.freecnt)
	}
	res += report("bdd: ", s.bddman)
	for k, man := range s.cddman {
		if man != nil {
			res += report(fmt.Sprintf("cdd%d:", k), man)
		}
	}
	return res
}
