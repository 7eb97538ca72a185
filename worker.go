package astar

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Query is one start/goal pair for SearchAll.
type Query[NodeType comparable] struct {
	Start NodeType
	Goal  NodeType
}

// SearchAll runs one independent search per query on a pool of
// Options.NumberOfWorkers goroutines and returns the results in query order.
// The strategy and observer must be safe for concurrent use. The first error
// cancels the remaining searches.
func SearchAll[NodeType comparable](
	contextObject context.Context,
	strategy Strategy[NodeType],
	queries []Query[NodeType],
	options ...Option,
) ([]Result[NodeType], error) {
	searchOptions := applyOptions(options)
	results := make([]Result[NodeType], len(queries))

	group, groupContext := errgroup.WithContext(contextObject)
	group.SetLimit(searchOptions.NumberOfWorkers)
	for i, query := range queries {
		group.Go(func() error {
			result, err := Search(groupContext, strategy, query.Start, query.Goal, options...)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
