package astar

import "errors"

var (
	// ErrInvalidDistance is returned when an edge cost is negative or NaN.
	ErrInvalidDistance = errors.New("astar: invalid edge distance")
	// ErrInvalidHeuristic is returned when a heuristic estimate is negative or NaN.
	ErrInvalidHeuristic = errors.New("astar: invalid heuristic estimate")
	// ErrNoNeighbors is returned by FindPath when no neighbor function is given.
	ErrNoNeighbors = errors.New("astar: neighbors function is required")
)
