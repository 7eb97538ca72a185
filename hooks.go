package astar

import (
	"context"
	"time"
)

// Stats summarizes one finished (or aborted) search.
type Stats struct {
	Expanded      int
	Discovered    int
	Reprioritized int
	Found         bool
	Cost          float64
	Elapsed       time.Duration
}

// Observer receives search events. Implementations must be safe for
// concurrent use when shared between parallel searches.
type Observer interface {
	// OnExpand is called each time a node is taken out of the open set.
	OnExpand(ctx context.Context)
	// OnSearchComplete is called once per search, err is nil unless the
	// search was aborted.
	OnSearchComplete(ctx context.Context, stats Stats, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnExpand(context.Context)                       {}
func (NopObserver) OnSearchComplete(context.Context, Stats, error) {}

// ObserverFunc adapts a completion callback to an Observer.
type ObserverFunc func(ctx context.Context, stats Stats, err error)

func (f ObserverFunc) OnExpand(context.Context) {}

func (f ObserverFunc) OnSearchComplete(ctx context.Context, stats Stats, err error) {
	f(ctx, stats, err)
}

type multiObserver []Observer

// Observers fans events out to every observer in order.
func Observers(observers ...Observer) Observer {
	return multiObserver(observers)
}

func (m multiObserver) OnExpand(ctx context.Context) {
	for _, observer := range m {
		observer.OnExpand(ctx)
	}
}

func (m multiObserver) OnSearchComplete(ctx context.Context, stats Stats, err error) {
	for _, observer := range m {
		observer.OnSearchComplete(ctx, stats, err)
	}
}
