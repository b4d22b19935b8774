// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import "github.com/zoneforge/cdd/dbm"

// The operation caches are direct mapped: a write displaces whatever
// occupied the bucket and a lookup is valid only when every key field
// matches. Flushing drops the entries that mention a dead node; it runs
// before every sweep so that cache hits can always reclaim their
// result.

// cacheData is one entry of the apply, quantification and replace
// caches.
type cacheData struct {
	res Node
	a   Node
	b   Node
	c   int32
}

type opCache struct {
	table []cacheData
}

func (bc *opCache) init(size int) {
	bc.table = make([]cacheData, size)
}

func (bc *opCache) reset() {
	for k := range bc.table {
		bc.table[k] = cacheData{}
	}
}

func (bc *opCache) lookup(hash uint64) *cacheData {
	return &bc.table[hash%uint64(len(bc.table))]
}

// flush invalidates the entries holding a node whose reference count
// dropped to zero.
func (bc *opCache) flush(s *Session) {
	for k := range bc.table {
		e := &bc.table[k]
		if e.a == 0 {
			continue
		}
		if s.nodes[e.a.id()].ref == 0 || s.nodes[e.res.id()].ref == 0 ||
			(e.b != 0 && s.nodes[e.b.id()].ref == 0) {
			*e = cacheData{}
		}
	}
}

// relaxCacheData keys the relax operator on the full constraint tuple.
type relaxCacheData struct {
	res    Node
	node   Node
	lower  dbm.Raw
	upper  dbm.Raw
	clock1 int32
	clock2 int32
	op     int32
}

type relaxCache struct {
	table []relaxCacheData
}

func (rc *relaxCache) init(size int) {
	rc.table = make([]relaxCacheData, size)
}

func (rc *relaxCache) reset() {
	for k := range rc.table {
		rc.table[k] = relaxCacheData{}
	}
}

func (rc *relaxCache) lookup(hash uint64) *relaxCacheData {
	return &rc.table[hash%uint64(len(rc.table))]
}

// operatorReset blanks every cache.
func (s *Session) operatorReset() {
	s.applycache.reset()
	s.quantcache.reset()
	s.replacecache.reset()
	s.relaxcache.reset()
}

// operatorFlush removes entries mentioning dead nodes. The relax cache
// has no cheap liveness test over its tuple, so it is reset wholesale.
func (s *Session) operatorFlush() {
	s.applycache.flush(s)
	s.quantcache.flush(s)
	s.replacecache.flush(s)
	s.relaxcache.reset()
}

// pair maps two integers to one, used to derive cache hash values.
func pair(a, b uint64) uint64 { return (a+b)*(a+b+1)/2 + a }

func triple(a, b, c uint64) uint64 { return pair(pair(a, b), c) }

func applyHash(l, r Node, op Operator) uint64 {
	return ((uint64(op) + uint64(l)) * uint64(_P1) + uint64(r)) * uint64(_P2)
}

func existHash(n Node) uint64 { return uint64(n) }

func replaceHash(n Node) uint64 { return uint64(n) }

func relaxHash(node Node, lower dbm.Raw, c1, c2 int32, upper dbm.Raw) uint64 {
	return triple(uint64(node), pair(uint64(uint32(lower)), uint64(uint32(c1))),
		pair(uint64(uint32(c2)), uint64(uint32(upper))))
}
