package astar

import (
	"iter"
	"maps"
	"math"
)

// SearchState is the bookkeeping the search keeps for one discovered node.
// It is only valid during the search that created it.
type SearchState[NodeType comparable] struct {
	node        NodeType
	gScore      float64
	fScore      float64
	closed      bool
	inOpen      bool
	predecessor *SearchState[NodeType]

	// position in the indexed heap, -1 when absent
	index int
	// insertion sequence of the latest push
	seq uint64
}

// Node returns the node this state describes.
func (state *SearchState[NodeType]) Node() NodeType { return state.node }

// GScore returns the lowest known cost from the start to this node.
func (state *SearchState[NodeType]) GScore() float64 { return state.gScore }

// FScore returns GScore plus the heuristic estimate to the goal.
func (state *SearchState[NodeType]) FScore() float64 { return state.fScore }

// Closed reports whether the node has been expanded.
func (state *SearchState[NodeType]) Closed() bool { return state.closed }

// InOpen reports whether the node is waiting in the open set.
func (state *SearchState[NodeType]) InOpen() bool { return state.inOpen }

// Predecessor returns the state the best known path arrives from, or nil for
// the start node and undiscovered nodes.
func (state *SearchState[NodeType]) Predecessor() *SearchState[NodeType] {
	return state.predecessor
}

// registry owns the states of one search, keyed by node.
type registry[NodeType comparable] struct {
	states map[NodeType]*SearchState[NodeType]
}

func newRegistry[NodeType comparable]() *registry[NodeType] {
	return &registry[NodeType]{states: make(map[NodeType]*SearchState[NodeType])}
}

// getOrCreate returns the state of node, creating an undiscovered one on
// first access.
func (r *registry[NodeType]) getOrCreate(node NodeType) *SearchState[NodeType] {
	if state, ok := r.states[node]; ok {
		return state
	}
	state := &SearchState[NodeType]{
		node:   node,
		gScore: math.Inf(1),
		fScore: math.Inf(1),
		index:  -1,
	}
	r.states[node] = state
	return state
}

func (r *registry[NodeType]) len() int { return len(r.states) }

func (r *registry[NodeType]) all() iter.Seq[*SearchState[NodeType]] {
	return maps.Values(r.states)
}
