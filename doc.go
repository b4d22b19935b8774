// Copyright (c) 2026 The zoneforge authors
//
// MIT License

// Package cdd implements Clock Difference Diagrams (CDD), a symbolic
// representation for sets of valuations over boolean variables and
// real-valued clocks constrained by differences of the form
// xi - xj in I. Timed-automata verification tools use it to represent
// non-convex unions of zones together with discrete state.
//
// Structurally a CDD resembles a BDD: the diagram is a DAG of decision
// nodes ordered by level. Boolean levels carry ordinary two-way BDD
// nodes; clock levels carry nodes labelled with a pair of clocks whose
// out-edges partition the real line into consecutive intervals. With no
// clocks declared, the package degenerates to a plain BDD library.
//
// Nodes are hash-consed and reference counted; handles encode semantic
// negation in their lowest bit, so negation is a constant-time
// operation and diagrams are unique modulo global negation. A
// mark-and-sweep garbage collector with deferred reclamation reuses
// dead nodes when operations resurrect them through the caches.
//
// Contrary to BDDs, ordered and reduced CDDs are not canonical. Reduce
// brings a diagram into pseudo-canonical form by removing all
// inconsistent paths: a tautology collapses to the true terminal and an
// unsatisfiable diagram to the false terminal, but distinct handles may
// still denote equal sets. Use Equiv for semantic comparison.
//
// A session must be created with New before use; boolean variables and
// clocks are declared with AddBddvar and AddClocks. All state lives in
// the session and no operation may run concurrently with another.
package cdd
