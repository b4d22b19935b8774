// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"time"
)

// Node sizes in bytes, used to carve chunks the way the original 64KiB
// memory blocks were divided. The CDD size grows with the arity.
const (
	bddNodeSize = 32
	cddNodeHdr  = 24
	elemSize    = 8
)

// hashFunc recomputes the hash of an interned node, used when splitting
// chains during a rehash.
type hashFunc func(s *Session, id uint32) uint32

// subTable is the unique table of one (manager, level) pair: an
// open-addressed power-of-two hash table whose collision chains are
// threaded through the next field of the nodes.
type subTable struct {
	level   int32
	deadcnt int32
	keys    int32
	maxkeys int32
	shift   uint32
	buckets int32
	hash    []uint32
}

// nodeManager owns the allocation of one size of node: chunked arena
// ranges, a free list threaded through next, one sub-table per level,
// and the statistics driving the garbage collector. A dead node is not
// free: its reference count dropped to zero but it still sits in its
// chain and can be reclaimed until the next sweep.
type nodeManager struct {
	nodesize  int32
	freecnt   int32
	chunkcnt  int32
	alloccnt  int32
	deadcnt   int32
	usedcnt   int32
	gbccnt    int32
	gbcclock  int64
	free      uint32 // head of the free list, 0 if empty
	idx       int32  // -2 for the BDD manager, the arity otherwise
	hashfunc  hashFunc
	subtables []*subTable
}

func newNodeManager(size, idx int32, hf hashFunc) *nodeManager {
	return &nodeManager{nodesize: size, idx: idx, hashfunc: hf}
}

func (man *nodeManager) addLevels(n int32) {
	man.subtables = append(man.subtables, make([]*subTable, n)...)
}

func (man *nodeManager) table(level int32) *subTable {
	tbl := man.subtables[level]
	if tbl == nil {
		tbl = &subTable{
			level:   level,
			shift:   32 - 8,
			buckets: 256,
		}
		tbl.maxkeys = tbl.buckets * _HASHDENSITY
		tbl.hash = make([]uint32, tbl.buckets)
		man.subtables[level] = tbl
	}
	return tbl
}

// cddManager returns the manager for CDD nodes of the given arity,
// allocating it on first use.
func (s *Session) cddManager(arity int32) *nodeManager {
	man := s.cddman[arity]
	if man == nil {
		man = newNodeManager(cddNodeHdr+elemSize*arity, arity, cddHashNode)
		man.addLevels(int32(len(s.levelinfo)))
		s.cddman[arity] = man
		if arity > s.maxcddused {
			s.maxcddused = arity
		}
	}
	return man
}

func (s *Session) manager(idx int32) *nodeManager {
	if idx == -2 {
		return s.bddman
	}
	return s.cddman[idx]
}

// allocChunk grabs a chunk worth of fresh records from the arena and
// threads them onto the manager's free list.
func (s *Session) allocChunk(man *nodeManager) {
	count := int32(_CHUNKSIZE / int(man.nodesize))
	base := uint32(len(s.nodes))
	for i := int32(0); i < count; i++ {
		id := base + uint32(i)
		next := id + 1
		if i == count-1 {
			next = man.free
		}
		s.nodes = append(s.nodes, ddNode{next: next, man: man.idx, xid: -1})
	}
	man.free = base
	man.freecnt += count
	man.chunkcnt++
	man.alloccnt += count
	s.chunkcnt++
}

// allocNode hands out a node from the free list. When the list is
// empty, the manager is garbage collected if enough of its nodes are
// dead, otherwise a new chunk is allocated.
func (s *Session) allocNode(man *nodeManager) uint32 {
	if man.free == 0 {
		if _MINFREE*man.alloccnt < 100*man.deadcnt {
			s.operatorFlush()
			s.gbcManager(man)
		} else {
			s.allocChunk(man)
		}
		if man.free == 0 {
			s.allocChunk(man)
		}
	}
	id := man.free
	man.free = s.nodes[id].next
	man.usedcnt++
	man.freecnt--
	return id
}

// gbcManager sweeps one manager: every dead node in every chain is
// unlinked and pushed onto the free list. Live nodes do not move.
func (s *Session) gbcManager(man *nodeManager) {
	if s.pregbc != nil {
		s.pregbc()
	}
	start := time.Now()

	for _, tbl := range man.subtables {
		if tbl == nil || tbl.deadcnt == 0 {
			continue
		}
		for j := int32(0); j < tbl.buckets; j++ {
			pp := &tbl.hash[j]
			id := *pp
			for id != 0 {
				next := s.nodes[id].next
				if s.nodes[id].ref == 0 {
					s.nodes[id].elem = nil
					s.nodes[id].next = man.free
					man.free = id
				} else {
					*pp = id
					pp = &s.nodes[id].next
				}
				id = next
			}
			*pp = 0
		}
		tbl.keys -= tbl.deadcnt
		tbl.deadcnt = 0
	}

	clk := time.Since(start).Nanoseconds()
	man.freecnt += man.deadcnt
	man.deadcnt = 0
	man.gbccnt++
	man.gbcclock += clk
	s.gbcclock += clk
	s.gbccnt++

	if s.postgbc != nil {
		s.postgbc(&GbcStat{
			Nodes:     man.alloccnt,
			Freenodes: man.freecnt,
			Time:      clk,
			Sumtime:   s.gbcclock,
			Num:       s.gbccnt,
		})
	}
}

// Gbc flushes the operation caches and sweeps every manager whose
// free/dead ratios pass the collection thresholds. Nothing in the
// library calls it: when a manager runs out of free nodes, allocNode
// collects only that manager. Calling it manually is allowed but
// expensive.
func (s *Session) Gbc() {
	s.operatorFlush()

	if _THRESHOLD*s.bddman.alloccnt >= 100*s.bddman.freecnt &&
		_MINFREE*s.bddman.alloccnt < 100*s.bddman.deadcnt {
		s.gbcManager(s.bddman)
	}
	for i := int32(2); i <= s.maxcddused; i++ {
		man := s.cddman[i]
		if man != nil && _THRESHOLD*man.alloccnt >= 100*man.freecnt &&
			_MINFREE*man.alloccnt < 100*man.deadcnt {
			s.gbcManager(man)
		}
	}
}

// rehash doubles the size of a sub-table and splits every chain on the
// newly exposed hash bit. Chains keep their relative order.
func (s *Session) rehash(man *nodeManager, tbl *subTable) {
	if s.prerehash != nil {
		s.prerehash()
	}
	start := time.Now()

	oldsize := tbl.buckets
	oldhash := tbl.hash
	tbl.buckets <<= 1
	tbl.maxkeys <<= 1
	tbl.shift--
	tbl.hash = make([]uint32, tbl.buckets)

	for i := int32(0); i < oldsize; i++ {
		pp := &tbl.hash[i<<1]
		qq := &tbl.hash[i<<1|1]
		for id := oldhash[i]; id != 0; {
			next := s.nodes[id].next
			bucket := man.hashfunc(s, id) >> tbl.shift
			if bucket&1 != 0 {
				*qq = id
				qq = &s.nodes[id].next
			} else {
				*pp = id
				pp = &s.nodes[id].next
			}
			id = next
		}
		*pp = 0
		*qq = 0
	}

	clk := time.Since(start).Nanoseconds()
	s.rehashclock += clk
	s.rehashcnt++

	if s.postrehash != nil {
		s.postrehash(&RehashStat{
			Level:   tbl.level,
			Buckets: tbl.buckets,
			Keys:    tbl.keys,
			Max:     tbl.maxkeys,
			Num:     s.rehashcnt,
			Time:    clk,
			Sumtime: s.rehashclock,
		})
	}
}
