// Package astar provides a generic A* pathfinding core over implicit graphs.
//
// Nodes are any comparable type. The caller describes the graph through a
// Strategy: neighbor enumeration, exact edge cost and a heuristic estimate.
// Optional interfaces let a strategy redefine goal detection (GoalReacher) or
// price an edge with the full search state of both endpoints (StateDistancer).
//
// It exposes these entry points:
//
//   - Search: run the algorithm to completion and get a Result.
//   - FindPath: the same, from plain callbacks instead of a Strategy.
//   - Stepper: iterate the search one expansion at a time to drive UIs or debugging tools.
//   - SearchAll: run independent searches in parallel on a bounded worker pool.
//
// A single search is synchronous and owns all of its bookkeeping. A path that
// does not exist is reported with Result.Found == false, not with an error.
package astar
