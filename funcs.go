package astar

import (
	"context"
	"iter"
)

// Funcs bundles plain callbacks for one-off searches with FindPath.
// Only Neighbors is required. A nil Heuristic estimates 0 (uniform-cost
// search), a nil Distance costs 1 per edge and a nil GoalReached compares with ==.
type Funcs[NodeType comparable] struct {
	Neighbors   func(node NodeType) iter.Seq[NodeType]
	Heuristic   func(node NodeType, goal NodeType) float64
	Distance    func(from NodeType, to NodeType) float64
	GoalReached func(current NodeType, goal NodeType) bool
}

// funcStrategy adapts Funcs to Strategy and GoalReacher.
type funcStrategy[NodeType comparable] struct {
	funcs Funcs[NodeType]
}

func (s funcStrategy[NodeType]) HeuristicEstimate(node NodeType, goal NodeType) float64 {
	if s.funcs.Heuristic == nil {
		return 0
	}
	return s.funcs.Heuristic(node, goal)
}

func (s funcStrategy[NodeType]) ExactDistance(from NodeType, to NodeType) (float64, error) {
	if s.funcs.Distance == nil {
		return 1, nil
	}
	return s.funcs.Distance(from, to), nil
}

func (s funcStrategy[NodeType]) Neighbors(node NodeType) (iter.Seq[NodeType], error) {
	return s.funcs.Neighbors(node), nil
}

func (s funcStrategy[NodeType]) GoalReached(current NodeType, goal NodeType) bool {
	if s.funcs.GoalReached == nil {
		return current == goal
	}
	return s.funcs.GoalReached(current, goal)
}

// FindPath runs Search with a strategy built from funcs.
func FindPath[NodeType comparable](
	contextObject context.Context,
	startNode NodeType,
	goalNode NodeType,
	funcs Funcs[NodeType],
	options ...Option,
) (Result[NodeType], error) {
	if funcs.Neighbors == nil {
		return Result[NodeType]{}, ErrNoNeighbors
	}
	return Search[NodeType](contextObject, funcStrategy[NodeType]{funcs: funcs}, startNode, goalNode, options...)
}
