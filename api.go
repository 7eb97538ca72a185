package astar

import (
	"context"
	"iter"
	"runtime"
	"time"
)

// Strategy describes an implicit graph to the search.
// NodeType must be comparable so it can be used in maps.
type Strategy[NodeType comparable] interface {
	// HeuristicEstimate returns the estimated remaining cost from node to goal.
	// The returned path is only guaranteed optimal when this never
	// overestimates the true cost.
	HeuristicEstimate(node NodeType, goal NodeType) float64

	// ExactDistance returns the cost of the edge from -> to. It is only called
	// with a to node produced by Neighbors(from).
	ExactDistance(from NodeType, to NodeType) (float64, error)

	// Neighbors returns the nodes adjacent to node. The sequence must be
	// finite; it is consumed once per expansion.
	Neighbors(node NodeType) (iter.Seq[NodeType], error)
}

// GoalReacher can be implemented by a Strategy to replace the default
// equality test used to detect the goal.
type GoalReacher[NodeType comparable] interface {
	GoalReached(current NodeType, goal NodeType) bool
}

// StateDistancer can be implemented by a Strategy whose edge cost depends on
// how the search arrived at from, e.g. turn penalties. When present it is used
// instead of ExactDistance.
type StateDistancer[NodeType comparable] interface {
	StateDistance(from *SearchState[NodeType], to *SearchState[NodeType]) (float64, error)
}

// Result contains the outcome of a search
type Result[NodeType comparable] struct {
	Path          []NodeType
	TotalCost     float64
	ExpandedNodes int
	Found         bool
}

// Options defines parameters for the search.
type Options struct {
	NumberOfWorkers int
	ReversePath     bool
	OpenSet         OpenSetKind
	Observer        Observer
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkers specifies how many searches SearchAll may run at once.
func WithWorkers(numberOfWorkers int) Option {
	return func(options *Options) { options.NumberOfWorkers = numberOfWorkers }
}

// WithReversePath returns paths ordered from goal to start.
func WithReversePath() Option {
	return func(options *Options) { options.ReversePath = true }
}

// WithOpenSet selects the open set implementation.
func WithOpenSet(kind OpenSetKind) Option {
	return func(options *Options) { options.OpenSet = kind }
}

// WithObserver registers hooks that receive search events.
func WithObserver(observer Observer) Option {
	return func(options *Options) { options.Observer = observer }
}

func applyOptions(options []Option) Options {
	searchOptions := Options{
		NumberOfWorkers: runtime.NumCPU(),
		Observer:        NopObserver{},
	}
	for _, option := range options {
		option(&searchOptions)
	}
	if searchOptions.NumberOfWorkers < 1 {
		searchOptions.NumberOfWorkers = 1
	}
	if searchOptions.Observer == nil {
		searchOptions.Observer = NopObserver{}
	}
	searchOptions.OpenSet = searchOptions.OpenSet.resolve()
	return searchOptions
}

// Search executes the A* search algorithm from startNode to goalNode.
//
// A missing path is not an error: the returned Result has Found set to false.
// Errors returned by the strategy abort the search and are returned as is.
func Search[NodeType comparable](
	contextObject context.Context,
	strategy Strategy[NodeType],
	startNode NodeType,
	goalNode NodeType,
	options ...Option,
) (Result[NodeType], error) {
	searchOptions := applyOptions(options)
	startedAt := time.Now()

	searchRun, err := newRun(strategy, startNode, goalNode, searchOptions)
	for err == nil && !searchRun.done {
		if err = contextObject.Err(); err != nil {
			break
		}
		var expanded bool
		expanded, err = searchRun.step()
		if expanded {
			searchOptions.Observer.OnExpand(contextObject)
		}
	}

	if err != nil {
		searchOptions.Observer.OnSearchComplete(contextObject, searchRun.stats(startedAt), err)
		return Result[NodeType]{ExpandedNodes: searchRun.expanded}, err
	}
	searchOptions.Observer.OnSearchComplete(contextObject, searchRun.stats(startedAt), nil)
	return searchRun.result(), nil
}
