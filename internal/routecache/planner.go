package routecache

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdrpinto/astar"
	"github.com/pdrpinto/astar/graphs/transit"
)

// Plan is the answer to a route query.
type Plan struct {
	From   *transit.Station
	To     *transit.Station
	Entry  Entry
	Cached bool
}

// Planner resolves station queries, consults the cache and searches on a miss.
type Planner struct {
	Network *transit.Network
	Cache   Cache // nil disables caching
	Options []astar.Option
}

// Plan returns the route between two stations named by ID or approximate name.
func (p *Planner) Plan(ctx context.Context, fromQuery, toQuery string) (Plan, error) {
	from, err := p.Network.Lookup(fromQuery)
	if err != nil {
		return Plan{}, fmt.Errorf("from: %w", err)
	}
	to, err := p.Network.Lookup(toQuery)
	if err != nil {
		return Plan{}, fmt.Errorf("to: %w", err)
	}
	plan := Plan{From: from, To: to}
	key := Key(from.ID, to.ID)

	if p.Cache != nil {
		entry, err := p.Cache.Get(ctx, key)
		switch {
		case err == nil:
			plan.Entry, plan.Cached = entry, true
			return plan, nil
		case !errors.Is(err, ErrMiss):
			return Plan{}, err
		}
	}

	result, err := p.Network.Route(ctx, from, to, p.Options...)
	if err != nil {
		return Plan{}, err
	}
	if result.Found {
		plan.Entry = Entry{Stations: transit.Names(result.Path), Cost: result.TotalCost, Found: true}
	}

	if p.Cache != nil {
		if err := p.Cache.Set(ctx, key, plan.Entry); err != nil {
			return Plan{}, err
		}
	}
	return plan, nil
}
