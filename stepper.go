package astar

import (
	"context"
	"time"
)

// StepSnapshot exposes the per-iteration state of the search
type StepSnapshot[NodeType comparable] struct {
	Current   NodeType
	Open      map[NodeType]bool
	Closed    map[NodeType]bool
	CameFrom  map[NodeType]NodeType
	Done      bool
	Found     bool
	Path      []NodeType
	Cost      float64
	StepIndex int
}

// Stepper runs the same control loop as Search, one expansion per Step.
// It is not safe for concurrent use.
type Stepper[NodeType comparable] struct {
	ctx       context.Context
	options   Options
	searchRun *run[NodeType]
	err       error
	startedAt time.Time
	stepCount int
	reported  bool
}

// NewStepper creates a stepper for a search from startNode to goalNode.
// Errors raised while seeding the search are returned by the first Step.
func NewStepper[NodeType comparable](
	parent context.Context,
	strategy Strategy[NodeType],
	startNode NodeType,
	goalNode NodeType,
	options ...Option,
) *Stepper[NodeType] {
	opts := applyOptions(options)
	searchRun, err := newRun(strategy, startNode, goalNode, opts)
	return &Stepper[NodeType]{
		ctx:       parent,
		options:   opts,
		searchRun: searchRun,
		err:       err,
		startedAt: time.Now(),
	}
}

// Close releases the search state. Step returns a finished snapshot afterwards.
func (s *Stepper[NodeType]) Close() {
	if s.searchRun == nil {
		return
	}
	s.complete()
	s.searchRun = nil
}

// Done reports whether the search has finished.
func (s *Stepper[NodeType]) Done() bool {
	return s.searchRun == nil || s.searchRun.done || s.err != nil
}

// Step advances the search by one node expansion and returns a snapshot
func (s *Stepper[NodeType]) Step() (StepSnapshot[NodeType], error) {
	if s.searchRun == nil {
		return StepSnapshot[NodeType]{Done: true, StepIndex: s.stepCount}, nil
	}
	if s.err != nil {
		s.complete()
		return StepSnapshot[NodeType]{Done: true, StepIndex: s.stepCount}, s.err
	}
	if s.searchRun.done {
		s.complete()
		return s.snapshot(s.lastNode()), nil
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		s.complete()
		return StepSnapshot[NodeType]{Done: true, StepIndex: s.stepCount}, err
	}

	expanded, err := s.searchRun.step()
	if expanded {
		s.stepCount++
		s.options.Observer.OnExpand(s.ctx)
	}
	if err != nil {
		s.err = err
		s.complete()
		return StepSnapshot[NodeType]{Done: true, StepIndex: s.stepCount}, err
	}
	if s.searchRun.done {
		s.complete()
	}

	var current NodeType
	if expanded {
		current = s.searchRun.lastClosed.node
	}
	return s.snapshot(current), nil
}

// Result returns the outcome once the search is done.
func (s *Stepper[NodeType]) Result() (Result[NodeType], bool) {
	if s.searchRun == nil || !s.searchRun.done || s.err != nil {
		return Result[NodeType]{}, false
	}
	return s.searchRun.result(), true
}

func (s *Stepper[NodeType]) complete() {
	if s.reported || s.searchRun == nil {
		return
	}
	s.reported = true
	s.options.Observer.OnSearchComplete(s.ctx, s.searchRun.stats(s.startedAt), s.err)
}

func (s *Stepper[NodeType]) lastNode() NodeType {
	var zero NodeType
	if s.searchRun.last != nil {
		return s.searchRun.last.node
	}
	return zero
}

func (s *Stepper[NodeType]) snapshot(current NodeType) StepSnapshot[NodeType] {
	snapshot := StepSnapshot[NodeType]{
		Current:   current,
		Open:      make(map[NodeType]bool),
		Closed:    make(map[NodeType]bool),
		CameFrom:  make(map[NodeType]NodeType),
		Done:      s.searchRun.done,
		Found:     s.searchRun.found,
		StepIndex: s.stepCount,
	}
	for state := range s.searchRun.states.all() {
		switch {
		case state.closed:
			snapshot.Closed[state.node] = true
		case state.inOpen:
			snapshot.Open[state.node] = true
		}
		if state.predecessor != nil {
			snapshot.CameFrom[state.node] = state.predecessor.node
		}
	}
	if s.searchRun.found {
		snapshot.Path = s.searchRun.path()
		snapshot.Cost = s.searchRun.last.gScore
	}
	return snapshot
}
