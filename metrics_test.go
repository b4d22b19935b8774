// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/zoneforge/cdd/dbm"
)

func TestCollector(t *testing.T) {
	s := newSession(t, 2, 1)
	_ = s.Ref(s.And(s.Upper(1, 0, dbm.RawOf(5, false)), s.Bddvar(1)))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(s)))

	families, err := reg.Gather()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, mf := range families {
		seen[mf.GetName()] = true
	}
	for _, name := range []string{
		"cdd_nodes_allocated",
		"cdd_nodes_used",
		"cdd_nodes_dead",
		"cdd_nodes_free",
		"cdd_chunks_total",
		"cdd_gc_runs_total",
		"cdd_rehash_total",
	} {
		require.True(t, seen[name], "missing metric family %s", name)
	}

	// The BDD and arity-2 managers both allocated a chunk.
	var allocated float64
	for _, mf := range families {
		if mf.GetName() != "cdd_nodes_allocated" {
			continue
		}
		for _, m := range mf.GetMetric() {
			allocated += m.GetGauge().GetValue()
		}
	}
	require.Greater(t, allocated, float64(0))
}
