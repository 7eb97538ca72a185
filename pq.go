package astar

import (
	"container/heap"
	"os"
	"strings"
	"sync"
)

// OpenSetKind selects the priority structure backing the open set.
type OpenSetKind int

const (
	// OpenSetAuto picks the process default, see DefaultOpenSet.
	OpenSetAuto OpenSetKind = iota
	// OpenSetIndexedHeap is a binary heap that tracks each entry's position,
	// so decrease-key removes the old entry in O(log n).
	OpenSetIndexedHeap
	// OpenSetLazyHeap is a binary heap where removal only invalidates the
	// entry; stale entries are discarded when they reach the top.
	OpenSetLazyHeap
)

func (kind OpenSetKind) String() string {
	switch kind {
	case OpenSetIndexedHeap:
		return "indexed"
	case OpenSetLazyHeap:
		return "lazy"
	default:
		return "auto"
	}
}

// ParseOpenSetKind maps "indexed", "lazy" or "auto" (case-insensitive) to a kind.
func ParseOpenSetKind(name string) (OpenSetKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return OpenSetAuto, true
	case "indexed":
		return OpenSetIndexedHeap, true
	case "lazy":
		return OpenSetLazyHeap, true
	}
	return OpenSetAuto, false
}

// openSetEnv overrides the default open set for the whole process.
const openSetEnv = "ASTAR_OPENSET"

// DefaultOpenSet returns the kind OpenSetAuto resolves to. It is probed once
// per process from the ASTAR_OPENSET environment variable.
var DefaultOpenSet = sync.OnceValue(func() OpenSetKind {
	if kind, ok := ParseOpenSetKind(os.Getenv(openSetEnv)); ok && kind != OpenSetAuto {
		return kind
	}
	return OpenSetIndexedHeap
})

func (kind OpenSetKind) resolve() OpenSetKind {
	if kind == OpenSetIndexedHeap || kind == OpenSetLazyHeap {
		return kind
	}
	return DefaultOpenSet()
}

// openSet orders discovered, unexpanded states by ascending f-score.
type openSet[NodeType comparable] interface {
	push(state *SearchState[NodeType])
	popMin() *SearchState[NodeType]
	remove(state *SearchState[NodeType])
	isEmpty() bool
	len() int
}

func newOpenSet[NodeType comparable](kind OpenSetKind) openSet[NodeType] {
	if kind.resolve() == OpenSetLazyHeap {
		return &lazyOpenSet[NodeType]{}
	}
	return &indexedOpenSet[NodeType]{}
}

// PriorityQueue is a heap of states ordered by f-score, then insertion order.
type PriorityQueue[NodeType comparable] []*SearchState[NodeType]

func (queue PriorityQueue[NodeType]) Len() int { return len(queue) }
func (queue PriorityQueue[NodeType]) Less(i, j int) bool {
	if queue[i].fScore != queue[j].fScore {
		return queue[i].fScore < queue[j].fScore
	}
	return queue[i].seq < queue[j].seq
}
func (queue PriorityQueue[NodeType]) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].index = i
	queue[j].index = j
}

func (queue *PriorityQueue[NodeType]) Push(x any) {
	item := x.(*SearchState[NodeType])
	item.index = len(*queue)
	*queue = append(*queue, item)
}

func (queue *PriorityQueue[NodeType]) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	item.index = -1
	*queue = oldQueue[:n-1]
	return item
}

type indexedOpenSet[NodeType comparable] struct {
	queue PriorityQueue[NodeType]
	seq   uint64
}

func (set *indexedOpenSet[NodeType]) push(state *SearchState[NodeType]) {
	set.seq++
	state.seq = set.seq
	state.inOpen = true
	heap.Push(&set.queue, state)
}

func (set *indexedOpenSet[NodeType]) popMin() *SearchState[NodeType] {
	if len(set.queue) == 0 {
		panic("astar: popMin on empty open set")
	}
	state := heap.Pop(&set.queue).(*SearchState[NodeType])
	state.inOpen = false
	return state
}

func (set *indexedOpenSet[NodeType]) remove(state *SearchState[NodeType]) {
	if !state.inOpen || state.index < 0 {
		return
	}
	heap.Remove(&set.queue, state.index)
	state.inOpen = false
}

func (set *indexedOpenSet[NodeType]) isEmpty() bool { return len(set.queue) == 0 }
func (set *indexedOpenSet[NodeType]) len() int      { return len(set.queue) }

// lazyEntry snapshots the priority of a state at push time.
type lazyEntry[NodeType comparable] struct {
	state  *SearchState[NodeType]
	fScore float64
	seq    uint64
}

func (entry lazyEntry[NodeType]) stale() bool {
	return !entry.state.inOpen || entry.state.seq != entry.seq
}

type lazyQueue[NodeType comparable] []lazyEntry[NodeType]

func (queue lazyQueue[NodeType]) Len() int { return len(queue) }
func (queue lazyQueue[NodeType]) Less(i, j int) bool {
	if queue[i].fScore != queue[j].fScore {
		return queue[i].fScore < queue[j].fScore
	}
	return queue[i].seq < queue[j].seq
}
func (queue lazyQueue[NodeType]) Swap(i, j int) { queue[i], queue[j] = queue[j], queue[i] }
func (queue *lazyQueue[NodeType]) Push(x any)   { *queue = append(*queue, x.(lazyEntry[NodeType])) }
func (queue *lazyQueue[NodeType]) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = lazyEntry[NodeType]{}
	*queue = oldQueue[:n-1]
	return item
}

type lazyOpenSet[NodeType comparable] struct {
	queue lazyQueue[NodeType]
	seq   uint64
	live  int
}

func (set *lazyOpenSet[NodeType]) push(state *SearchState[NodeType]) {
	set.seq++
	state.seq = set.seq
	state.inOpen = true
	set.live++
	heap.Push(&set.queue, lazyEntry[NodeType]{state: state, fScore: state.fScore, seq: state.seq})
}

func (set *lazyOpenSet[NodeType]) popMin() *SearchState[NodeType] {
	for len(set.queue) > 0 {
		entry := heap.Pop(&set.queue).(lazyEntry[NodeType])
		if entry.stale() {
			continue
		}
		entry.state.inOpen = false
		set.live--
		return entry.state
	}
	panic("astar: popMin on empty open set")
}

func (set *lazyOpenSet[NodeType]) remove(state *SearchState[NodeType]) {
	if !state.inOpen {
		return
	}
	state.inOpen = false
	set.live--
	if set.live == 0 {
		clear(set.queue)
		set.queue = set.queue[:0]
	}
}

func (set *lazyOpenSet[NodeType]) isEmpty() bool { return set.live == 0 }
func (set *lazyOpenSet[NodeType]) len() int      { return set.live }
