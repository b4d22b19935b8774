// Copyright (c) 2026 The zoneforge authors
//
// MIT License

package cdd

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zoneforge/cdd/dbm"
)

// _MAXREF is the maximal value of the saturating reference counter.
// Once a counter reaches this value it is never modified again, so the
// node is pinned until the session is destroyed.
const _MAXREF int32 = 0x3FF

// _MAXLEVEL is reserved for terminal nodes. The number of declared
// levels must stay below it.
const _MAXLEVEL int32 = (1 << 20) - 1

// _HASHDENSITY bounds the load factor of the sub-tables. When a table
// holds more than buckets*_HASHDENSITY keys it is rehashed.
const _HASHDENSITY = 4

// _THRESHOLD is the free-node percentage below which a global garbage
// collection sweeps a manager.
const _THRESHOLD = 5

// _MINFREE is the dead-node percentage above which reclaiming dead
// nodes is preferred over allocating a new chunk.
const _MINFREE = 20

// _CHUNKSIZE is the number of bytes worth of nodes grabbed from the
// arena whenever a manager runs out of free nodes.
const _CHUNKSIZE = 0x10000

// Inf is the packed bound representing the absence of a constraint.
const Inf = dbm.LSInfinity

// Node type of a level.
const (
	TypeCDD int32 = 0
	TypeBDD int32 = 1
)

// LevelInfo describes one level of the variable order.
type LevelInfo struct {
	Type   int32 // TypeCDD or TypeBDD
	Clock1 int32 // positive clock index
	Clock2 int32 // negative clock index
	Diff   int32 // encoding of clock1 - clock2
}

func differenceCount(n int32) int32 { return n * (n - 1) / 2 }

func difference(c, d int32) int32 { return differenceCount(c) + d }

// GbcStat is handed to the post-GC hook after each garbage collection.
type GbcStat struct {
	Nodes     int32 // number of allocated nodes
	Freenodes int32 // number of free nodes
	Time      int64 // nanoseconds spent in this run
	Sumtime   int64 // accumulated nanoseconds
	Num       int32 // total number of collections
}

// RehashStat is handed to the post-rehash hook after a sub-table has
// been resized.
type RehashStat struct {
	Level   int32 // level of the sub-table
	Buckets int32 // new size of the hash table
	Keys    int32 // number of elements in the table
	Max     int32 // max number of elements before the next rehash
	Num     int32 // total number of rehash events
	Time    int64 // nanoseconds spent in this run
	Sumtime int64 // accumulated nanoseconds
}

// Session holds the entire state of the library: the node arena, the
// managers and their sub-tables, the operation caches, the reference
// stack and the latched error condition. All operations are methods on
// the session and none of them may run concurrently.
type Session struct {
	nodes []ddNode // node arena; slot 0 is the chain terminator

	bddman *nodeManager
	cddman []*nodeManager // indexed by arity

	levelinfo  []LevelInfo
	diff2level []int32
	clocknum   int32
	varnum     int32
	bddstart   int32 // level of the first BDD variable, -1 if none

	maxcddsize int32 // maximum arity of a CDD node
	maxcddused int32
	chunkcnt   int32

	gbccnt      int32
	gbcclock    int64
	rehashcnt   int32
	rehashclock int64

	refstack []Elem
	reftop   int

	applycache   opCache
	quantcache   opCache
	replacecache opCache
	relaxcache   relaxCache
	applyop      Operator
	opid         int32

	xterms []Node

	errorcond int32
	running   bool

	pregbc     func()
	postgbc    func(*GbcStat)
	prerehash  func()
	postrehash func(*RehashStat)

	logger logrus.FieldLogger

	cachesize int
	stacksize int
}

// configs collects the tunable parameters of New.
type configs struct {
	maxarity  int
	cachesize int
	stacksize int
	logger    logrus.FieldLogger
}

// Maxarity is a configuration option (function). It bounds the arity of
// CDD nodes; nodes with more children raise ErrMaxsize. The default is
// 64.
func Maxarity(n int) func(*configs) {
	return func(c *configs) {
		if n >= 2 {
			c.maxarity = n
		}
	}
}

// Cachesize is a configuration option (function). It sets the number of
// entries in each of the operation caches. The default is 10 000.
func Cachesize(n int) func(*configs) {
	return func(c *configs) {
		if n > 0 {
			c.cachesize = n
		}
	}
}

// Stacksize is a configuration option (function). It sets the capacity
// of the reference stack used while assembling CDD nodes. The default
// is 10 000 elements.
func Stacksize(n int) func(*configs) {
	return func(c *configs) {
		if n > 0 {
			c.stacksize = n
		}
	}
}

// Logger is a configuration option (function). It installs the logger
// used by the default GC and rehash diagnostics.
func Logger(l logrus.FieldLogger) func(*configs) {
	return func(c *configs) { c.logger = l }
}

// New initialises a session. Boolean variables and clocks must be added
// with AddBddvar and AddClocks before any diagram is built.
func New(options ...func(*configs)) (*Session, error) {
	c := &configs{maxarity: 64, cachesize: 10000, stacksize: 10000}
	for _, opt := range options {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	s := &Session{
		maxcddsize: int32(c.maxarity),
		cachesize:  c.cachesize,
		stacksize:  c.stacksize,
		logger:     c.logger,
		bddstart:   -1,
	}
	// Slot 0 terminates collision chains; slot 1 is the terminal.
	s.nodes = make([]ddNode, 2, 2+_CHUNKSIZE/bddNodeSize)
	s.nodes[falseID] = ddNode{level: _MAXLEVEL, ref: _MAXREF, man: -1, xid: -1}
	s.cddman = make([]*nodeManager, c.maxarity+1)
	s.bddman = newNodeManager(bddNodeSize, -2, bddHashNode)
	s.refstack = make([]Elem, c.stacksize)
	s.applycache.init(c.cachesize)
	s.quantcache.init(c.cachesize)
	s.replacecache.init(c.cachesize)
	s.relaxcache.init(c.cachesize)
	s.postgbc = s.defaultGbcHandler
	s.postrehash = s.defaultRehashHandler
	s.running = true
	return s, nil
}

// Done releases the session. Every handle obtained from it is
// invalidated.
func (s *Session) Done() {
	if !s.running {
		return
	}
	s.nodes = nil
	s.bddman = nil
	s.cddman = nil
	s.levelinfo = nil
	s.diff2level = nil
	s.refstack = nil
	s.applycache.table = nil
	s.quantcache.table = nil
	s.replacecache.table = nil
	s.relaxcache.table = nil
	s.xterms = nil
	s.running = false
}

// IsRunning reports whether the session is usable.
func (s *Session) IsRunning() bool { return s.running }

var (
	defaultSession   *Session
	defaultSessionMu sync.Mutex
)

// EnsureRunning returns the process-wide default session, lazily
// initialised with the default parameters (64, 10000, 10000).
func EnsureRunning() *Session {
	defaultSessionMu.Lock()
	defer defaultSessionMu.Unlock()
	if defaultSession == nil || !defaultSession.running {
		defaultSession, _ = New()
	}
	return defaultSession
}

// True returns the tautology.
func (s *Session) True() Node { return cddTrue }

// False returns the empty diagram.
func (s *Session) False() Node { return cddFalse }

// addLevels grows the sub-table arrays of every manager by n levels.
func (s *Session) addLevels(n int32) {
	s.bddman.addLevels(n)
	for _, man := range s.cddman {
		if man != nil {
			man.addLevels(n)
		}
	}
}

// AddClocks declares n additional clocks. Since CDD nodes constrain
// clock differences this allocates one level per new ordered pair.
func (s *Session) AddClocks(n int32) {
	diffs := differenceCount(s.clocknum+n) - differenceCount(s.clocknum)
	s.addLevels(diffs)
	grown := make([]int32, differenceCount(s.clocknum+n))
	copy(grown, s.diff2level)
	s.diff2level = grown
	for i := s.clocknum; i < s.clocknum+n; i++ {
		for j := int32(0); j < i; j++ {
			info := LevelInfo{Type: TypeCDD, Clock1: i, Clock2: j, Diff: difference(i, j)}
			s.diff2level[info.Diff] = int32(len(s.levelinfo))
			s.levelinfo = append(s.levelinfo, info)
		}
	}
	s.clocknum += n
}

// AddBddvar declares n additional boolean variables and returns the
// level of the first one.
func (s *Session) AddBddvar(n int32) int32 {
	offset := int32(len(s.levelinfo))
	s.addLevels(n)
	for i := int32(0); i < n; i++ {
		s.levelinfo = append(s.levelinfo, LevelInfo{Type: TypeBDD, Clock1: -1, Clock2: -1, Diff: -1})
	}
	if s.bddstart < 0 {
		s.bddstart = offset
	}
	s.varnum += n
	return offset
}

// AddTautologies declares n extra terminals. They compare equal to the
// tautology semantically but carry a distinguishing id. They must be
// created before any node referring to them.
func (s *Session) AddTautologies(n int32) {
	for i := int32(0); i < n; i++ {
		id := uint32(len(s.nodes))
		s.nodes = append(s.nodes, ddNode{
			level: _MAXLEVEL,
			ref:   _MAXREF,
			man:   -1,
			xid:   int32(len(s.xterms)),
		})
		s.xterms = append(s.xterms, mkNode(id, 0))
	}
}

// ExtraTerminal returns the i'th tautology terminal.
func (s *Session) ExtraTerminal(i int32) Node {
	if i < 0 || int(i) >= len(s.xterms) {
		s.seterror(ErrRange)
		return cddFalse
	}
	return s.xterms[i]
}

// Tautologies returns the number of extra terminals.
func (s *Session) Tautologies() int32 { return int32(len(s.xterms)) }

// ApplyTautology conjoins a diagram with the t'th extra terminal.
func (s *Session) ApplyTautology(n Node, t int32) Node {
	return s.Apply(n, s.ExtraTerminal(t), OpAnd)
}

// LevelCount returns the number of declared levels.
func (s *Session) LevelCount() int32 { return int32(len(s.levelinfo)) }

// BddLevelCount returns the number of declared boolean variables.
func (s *Session) BddLevelCount() int32 { return s.varnum }

// Clocks returns the number of declared clocks.
func (s *Session) Clocks() int32 { return s.clocknum }

// Levelinfo returns the description of a level.
func (s *Session) Levelinfo(level int32) (LevelInfo, error) {
	if level < 0 || int(level) >= len(s.levelinfo) {
		return LevelInfo{}, errors.Errorf("cdd: no such level %d", level)
	}
	return s.levelinfo[level], nil
}

func (s *Session) info(n Node) *LevelInfo {
	return &s.levelinfo[s.nodes[n.id()].level]
}

// PreGbcHook installs a function called before each garbage collection.
func (s *Session) PreGbcHook(f func()) { s.pregbc = f }

// PostGbcHook installs a function called after each garbage collection.
func (s *Session) PostGbcHook(f func(*GbcStat)) { s.postgbc = f }

// PreRehashHook installs a function called before each rehash.
func (s *Session) PreRehashHook(f func()) { s.prerehash = f }

// PostRehashHook installs a function called after each rehash.
func (s *Session) PostRehashHook(f func(*RehashStat)) { s.postrehash = f }

func (s *Session) defaultGbcHandler(st *GbcStat) {
	s.logger.WithFields(logrus.Fields{
		"nodes": st.Nodes,
		"free":  st.Freenodes,
		"time":  st.Time,
	}).Infof("garbage collection #%d", st.Num)
}

func (s *Session) defaultRehashHandler(st *RehashStat) {
	s.logger.WithFields(logrus.Fields{
		"level":   st.Level,
		"buckets": st.Buckets,
		"keys":    st.Keys,
		"max":     st.Max,
		"time":    st.Time,
	}).Infof("rehash #%d", st.Num)
}

// reference stack; protects nodes that are being assembled into a CDD
// element array from the garbage collector and carries the interval
// bounds. Callers save the top and restore it once the constructed node
// has been retained elsewhere.

func (s *Session) pushRef(n Node, bnd dbm.Raw) {
	if s.reftop >= len(s.refstack) {
		s.seterror(ErrStackOverflow)
		return
	}
	s.refstack[s.reftop] = Elem{Child: n, Bnd: bnd}
	s.reftop++
}
