// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the node-manager statistics of a session as
// Prometheus metrics. Register it with a prometheus.Registerer; the
// session must outlive the collector.
type Collector struct {
	s *Session

	allocated *prometheus.Desc
	used      *prometheus.Desc
	dead      *prometheus.Desc
	free      *prometheus.Desc
	chunks    *prometheus.Desc
	gcRuns    *prometheus.Desc
	rehashes  *prometheus.Desc
}

// NewCollector returns a collector over the given session.
func NewCollector(s *Session) *Collector {
	return &Collector{
		s: s,
		allocated: prometheus.NewDesc("cdd_nodes_allocated",
			"Number of allocated nodes per manager.", []string{"manager"}, nil),
		used: prometheus.NewDesc("cdd_nodes_used",
			"Number of used nodes per manager.", []string{"manager"}, nil),
		dead: prometheus.NewDesc("cdd_nodes_dead",
			"Number of dead nodes per manager.", []string{"manager"}, nil),
		free: prometheus.NewDesc("cdd_nodes_free",
			"Number of free nodes per manager.", []string{"manager"}, nil),
		chunks: prometheus.NewDesc("cdd_chunks_total",
			"Total number of allocated chunks.", nil, nil),
		gcRuns: prometheus.NewDesc("cdd_gc_runs_total",
			"Total number of garbage collection runs.", nil, nil),
		rehashes: prometheus.NewDesc("cdd_rehash_total",
			"Total number of sub-table rehash events.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocated
	ch <- c.used
	ch <- c.dead
	ch <- c.free
	ch <- c.chunks
	ch <- c.gcRuns
	ch <- c.rehashes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	emit := func(name string, man *nodeManager) {
		ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.GaugeValue, float64(man.alloccnt), name)
		ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(man.usedcnt), name)
		ch <- prometheus.MustNewConstMetric(c.dead, prometheus.GaugeValue, float64(man.deadcnt), name)
		ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(man.freecnt), name)
	}
	emit("bdd", c.s.bddman)
	for k, man := range c.s.cddman {
		if man != nil {
			emit(fmt.Sprintf("cdd%d", k), man)
		}
	}
	ch <- prometheus.MustNewConstMetric(c.chunks, prometheus.CounterValue, float64(c.s.chunkcnt))
	ch <- prometheus.MustNewConstMetric(c.gcRuns, prometheus.CounterValue, float64(c.s.gbccnt))
	ch <- prometheus.MustNewConstMetric(c.rehashes, prometheus.CounterValue, float64(c.s.rehashcnt))
}
