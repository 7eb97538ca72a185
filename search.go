package astar

import (
	"fmt"
	"math"
	"time"

	"github.com/pdrpinto/astar/internal"
)

// run is the state of one search. Search drives it to completion, Stepper
// advances it one expansion at a time.
type run[NodeType comparable] struct {
	strategy    Strategy[NodeType]
	goalReached func(current NodeType, goal NodeType) bool
	distance    func(from *SearchState[NodeType], to *SearchState[NodeType]) (float64, error)
	goal        NodeType
	reversePath bool

	states  *registry[NodeType]
	openSet openSet[NodeType]

	expanded      int
	reprioritized int
	done          bool
	found         bool
	last          *SearchState[NodeType]
	lastClosed    *SearchState[NodeType]
}

func newRun[NodeType comparable](
	strategy Strategy[NodeType],
	startNode NodeType,
	goalNode NodeType,
	searchOptions Options,
) (*run[NodeType], error) {
	searchRun := &run[NodeType]{
		strategy:    strategy,
		goal:        goalNode,
		reversePath: searchOptions.ReversePath,
		states:      newRegistry[NodeType](),
		openSet:     newOpenSet[NodeType](searchOptions.OpenSet),
	}

	searchRun.goalReached = func(current NodeType, goal NodeType) bool { return current == goal }
	if reacher, ok := strategy.(GoalReacher[NodeType]); ok {
		searchRun.goalReached = reacher.GoalReached
	}
	searchRun.distance = func(from *SearchState[NodeType], to *SearchState[NodeType]) (float64, error) {
		return strategy.ExactDistance(from.node, to.node)
	}
	if distancer, ok := strategy.(StateDistancer[NodeType]); ok {
		searchRun.distance = distancer.StateDistance
	}

	startState := searchRun.states.getOrCreate(startNode)
	startState.gScore = 0

	// Degenerate success: nothing to expand.
	if searchRun.goalReached(startNode, goalNode) {
		startState.fScore = 0
		searchRun.finish(startState)
		return searchRun, nil
	}

	estimate, err := searchRun.heuristic(startNode)
	if err != nil {
		searchRun.done = true
		return searchRun, err
	}
	startState.fScore = estimate
	searchRun.openSet.push(startState)
	return searchRun, nil
}

// step expands one node. It reports whether a node was taken out of the open
// set; when the open set is exhausted the run is marked done without a path.
func (r *run[NodeType]) step() (bool, error) {
	if r.done {
		return false, nil
	}
	if r.openSet.isEmpty() {
		r.done = true
		return false, nil
	}

	current := r.openSet.popMin()
	current.closed = true
	r.expanded++
	r.lastClosed = current

	if r.goalReached(current.node, r.goal) {
		r.finish(current)
		return true, nil
	}

	neighbors, err := r.strategy.Neighbors(current.node)
	if err != nil {
		r.done = true
		return true, err
	}
	if neighbors == nil {
		return true, nil
	}

	for neighborNode := range neighbors {
		neighbor := r.states.getOrCreate(neighborNode)
		if neighbor.closed {
			continue
		}

		edgeCost, err := r.distance(current, neighbor)
		if err != nil {
			r.done = true
			return true, err
		}
		if edgeCost < 0 || math.IsNaN(edgeCost) {
			r.done = true
			return true, fmt.Errorf("%w: %v -> %v costs %g", ErrInvalidDistance, current.node, neighborNode, edgeCost)
		}

		tentativeG := current.gScore + edgeCost
		if tentativeG >= neighbor.gScore {
			continue
		}

		estimate, err := r.heuristic(neighborNode)
		if err != nil {
			r.done = true
			return true, err
		}
		// Its key is about to change.
		if neighbor.inOpen {
			r.openSet.remove(neighbor)
			r.reprioritized++
		}
		neighbor.predecessor = current
		neighbor.gScore = tentativeG
		neighbor.fScore = tentativeG + estimate
		r.openSet.push(neighbor)
	}
	return true, nil
}

func (r *run[NodeType]) heuristic(node NodeType) (float64, error) {
	estimate := r.strategy.HeuristicEstimate(node, r.goal)
	if estimate < 0 || math.IsNaN(estimate) {
		return 0, fmt.Errorf("%w: h(%v) = %g", ErrInvalidHeuristic, node, estimate)
	}
	return estimate, nil
}

func (r *run[NodeType]) finish(last *SearchState[NodeType]) {
	r.done = true
	r.found = true
	r.last = last
}

func (r *run[NodeType]) path() []NodeType {
	if r.last == nil {
		return nil
	}
	return internal.ReconstructPath(
		r.last,
		func(state *SearchState[NodeType]) *SearchState[NodeType] { return state.predecessor },
		func(state *SearchState[NodeType]) NodeType { return state.node },
		r.reversePath,
	)
}

func (r *run[NodeType]) result() Result[NodeType] {
	if !r.found {
		return Result[NodeType]{ExpandedNodes: r.expanded}
	}
	return Result[NodeType]{
		Path:          r.path(),
		TotalCost:     r.last.gScore,
		ExpandedNodes: r.expanded,
		Found:         true,
	}
}

func (r *run[NodeType]) stats(startedAt time.Time) Stats {
	stats := Stats{
		Expanded:      r.expanded,
		Discovered:    r.states.len(),
		Reprioritized: r.reprioritized,
		Found:         r.found,
		Elapsed:       time.Since(startedAt),
	}
	if r.found {
		stats.Cost = r.last.gScore
	}
	return stats
}
