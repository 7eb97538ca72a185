package astar

import (
	"context"
	"errors"
	"iter"
	"maps"
	"math"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotAdjacent = errors.New("not adjacent")

type edge struct {
	to   string
	cost float64
}

// letterGraph is a small directed graph keyed by node name.
type letterGraph struct {
	edges         map[string][]edge
	heuristic     func(node, goal string) float64
	neighborCalls map[string]int
}

func newLetterGraph(edges map[string][]edge) *letterGraph {
	return &letterGraph{edges: edges, neighborCalls: make(map[string]int)}
}

func (g *letterGraph) HeuristicEstimate(node, goal string) float64 {
	if g.heuristic == nil {
		return 1
	}
	return g.heuristic(node, goal)
}

func (g *letterGraph) ExactDistance(from, to string) (float64, error) {
	for _, e := range g.edges[from] {
		if e.to == to {
			return e.cost, nil
		}
	}
	return 0, errNotAdjacent
}

func (g *letterGraph) Neighbors(node string) (iter.Seq[string], error) {
	g.neighborCalls[node]++
	return func(yield func(string) bool) {
		for _, e := range g.edges[node] {
			if !yield(e.to) {
				return
			}
		}
	}, nil
}

var openSetKinds = []OpenSetKind{OpenSetIndexedHeap, OpenSetLazyHeap}

func forEachOpenSet(t *testing.T, fn func(t *testing.T, kind OpenSetKind)) {
	t.Helper()
	for _, kind := range openSetKinds {
		t.Run(kind.String(), func(t *testing.T) { fn(t, kind) })
	}
}

func TestSearchPrefersCheaperLongerPath(t *testing.T) {
	forEachOpenSet(t, func(t *testing.T, kind OpenSetKind) {
		graph := newLetterGraph(map[string][]edge{
			"A": {{"B", 100}, {"C", 20}},
			"C": {{"D", 20}},
			"D": {{"B", 20}},
		})

		result, err := Search[string](context.Background(), graph, "A", "B", WithOpenSet(kind))
		require.NoError(t, err)
		require.True(t, result.Found)
		if diff := cmp.Diff([]string{"A", "C", "D", "B"}, result.Path); diff != "" {
			t.Errorf("path mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 60.0, result.TotalCost)
	})
}

func TestSearchUnreachableGoal(t *testing.T) {
	forEachOpenSet(t, func(t *testing.T, kind OpenSetKind) {
		graph := newLetterGraph(map[string][]edge{
			"A": {{"B", 200000}},
			"C": {{"D", 200000}},
			"D": {{"E", 200000}},
			"E": {{"F", 200000}},
			"B": {},
			"F": {},
		})

		result, err := Search[string](context.Background(), graph, "A", "D", WithOpenSet(kind))
		require.NoError(t, err)
		assert.False(t, result.Found)
		assert.Nil(t, result.Path)
		assert.Equal(t, 2, result.ExpandedNodes)
	})
}

func TestSearchStartIsGoal(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{"A": {{"B", 1}}})

	result, err := Search[string](context.Background(), graph, "A", "A")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, []string{"A"}, result.Path)
	assert.Zero(t, result.ExpandedNodes)
	assert.Zero(t, result.TotalCost)
	assert.Empty(t, graph.neighborCalls)
}

func TestSearchReversePath(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{
		"A": {{"B", 100}, {"C", 20}},
		"C": {{"D", 20}},
		"D": {{"B", 20}},
	})

	result, err := Search[string](context.Background(), graph, "A", "B", WithReversePath())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "C", "A"}, result.Path)
}

func TestSearchDecreaseKey(t *testing.T) {
	// X is first reached through A at cost 10, then through B at cost 3.
	forEachOpenSet(t, func(t *testing.T, kind OpenSetKind) {
		graph := newLetterGraph(map[string][]edge{
			"S": {{"A", 1}, {"B", 2}},
			"A": {{"X", 9}},
			"B": {{"X", 1}},
			"X": {{"G", 1}},
		})
		graph.heuristic = func(string, string) float64 { return 0 }

		var stats Stats
		observer := ObserverFunc(func(_ context.Context, s Stats, _ error) { stats = s })
		result, err := Search[string](context.Background(), graph, "S", "G", WithOpenSet(kind), WithObserver(observer))
		require.NoError(t, err)
		assert.Equal(t, []string{"S", "B", "X", "G"}, result.Path)
		assert.Equal(t, 4.0, result.TotalCost)
		assert.Equal(t, 1, stats.Reprioritized)
		assert.Equal(t, 1, graph.neighborCalls["X"])
	})
}

func TestSearchDecreaseKeyGScore(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{
		"S": {{"A", 1}, {"B", 2}},
		"A": {{"X", 9}},
		"B": {{"X", 1}},
		"X": {{"G", 1}},
	})
	graph.heuristic = func(string, string) float64 { return 0 }

	stepper := NewStepper[string](context.Background(), graph, "S", "G")
	defer stepper.Close()
	for !stepper.Done() {
		_, err := stepper.Step()
		require.NoError(t, err)
	}
	state := stepper.searchRun.states.getOrCreate("X")
	assert.Equal(t, 3.0, state.GScore())
	assert.Equal(t, "B", state.Predecessor().Node())
	assert.True(t, state.Closed())
}

func TestSearchCallbackErrorPropagates(t *testing.T) {
	forEachOpenSet(t, func(t *testing.T, kind OpenSetKind) {
		graph := newLetterGraph(map[string][]edge{
			"A": {{"B", 1}},
		})
		// Neighbors of B include a node ExactDistance does not know.
		graph.edges["B"] = []edge{{"C", 1}}
		broken := &brokenDistance{letterGraph: graph, bad: "C"}

		_, err := Search[string](context.Background(), broken, "A", "Z", WithOpenSet(kind))
		require.Error(t, err)
		assert.Same(t, errNotAdjacent, err)
	})
}

type brokenDistance struct {
	*letterGraph
	bad string
}

func (b *brokenDistance) ExactDistance(from, to string) (float64, error) {
	if to == b.bad {
		return 0, errNotAdjacent
	}
	return b.letterGraph.ExactDistance(from, to)
}

type failingNeighbors struct{ *letterGraph }

var errNeighborSource = errors.New("neighbor source unavailable")

func (failingNeighbors) Neighbors(string) (iter.Seq[string], error) {
	return nil, errNeighborSource
}

func TestSearchNeighborErrorPropagates(t *testing.T) {
	graph := failingNeighbors{newLetterGraph(nil)}

	result, err := Search[string](context.Background(), graph, "A", "B")
	assert.ErrorIs(t, err, errNeighborSource)
	assert.False(t, result.Found)
	assert.Nil(t, result.Path)
}

func TestSearchRejectsInvalidCosts(t *testing.T) {
	tests := []struct {
		name      string
		cost      float64
		heuristic float64
		wantErr   error
	}{
		{name: "negative distance", cost: -1, heuristic: 0, wantErr: ErrInvalidDistance},
		{name: "NaN distance", cost: math.NaN(), heuristic: 0, wantErr: ErrInvalidDistance},
		{name: "NaN heuristic", cost: 1, heuristic: math.NaN(), wantErr: ErrInvalidHeuristic},
		{name: "negative heuristic", cost: 1, heuristic: -2, wantErr: ErrInvalidHeuristic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := newLetterGraph(map[string][]edge{
				"A": {{"B", tt.cost}},
			})
			graph.heuristic = func(string, string) float64 { return tt.heuristic }

			_, err := Search[string](context.Background(), graph, "A", "B")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearchInfiniteEdgeIsIgnored(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{
		"A": {{"B", math.Inf(1)}},
	})

	result, err := Search[string](context.Background(), graph, "A", "B")
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestSearchCanceledContext(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{"A": {{"B", 1}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search[string](ctx, graph, "A", "B")
	assert.ErrorIs(t, err, context.Canceled)
}

type regionGoal struct{ *letterGraph }

func (regionGoal) GoalReached(current, goal string) bool {
	return current[0] == goal[0]
}

func TestSearchCustomGoalReached(t *testing.T) {
	graph := regionGoal{newLetterGraph(map[string][]edge{
		"A":  {{"B1", 5}, {"C", 1}},
		"C":  {{"B2", 1}},
		"B2": {{"B1", 1}},
	})}

	result, err := Search[string](context.Background(), graph, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B2"}, result.Path)
	assert.Equal(t, 2.0, result.TotalCost)
}

// turnCost charges an extra unit when a path leaves its line, named by the
// first letter of a node. The first move from the start is free.
type turnCost struct{ *letterGraph }

func (g turnCost) StateDistance(from, to *SearchState[string]) (float64, error) {
	cost, err := g.ExactDistance(from.Node(), to.Node())
	if err != nil {
		return 0, err
	}
	if from.Predecessor() != nil && from.Node()[0] != to.Node()[0] {
		cost++
	}
	return cost, nil
}

func TestSearchStateDistanceOverridesExactDistance(t *testing.T) {
	edges := map[string][]edge{
		"S":  {{"a1", 1}, {"b1", 1}},
		"a1": {{"a2", 1}},
		"b1": {{"a2", 0.5}},
		"a2": {{"aG", 1}},
	}
	zero := func(string, string) float64 { return 0 }

	plain := newLetterGraph(edges)
	plain.heuristic = zero
	result, err := Search[string](context.Background(), plain, "S", "aG")
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "b1", "a2", "aG"}, result.Path)
	assert.Equal(t, 2.5, result.TotalCost)

	penalized := turnCost{newLetterGraph(edges)}
	penalized.heuristic = zero
	result, err = Search[string](context.Background(), penalized, "S", "aG")
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "a1", "a2", "aG"}, result.Path)
	assert.Equal(t, 3.0, result.TotalCost)
}

// intGraph is a random weighted digraph for property tests.
type intGraph struct {
	adjacency  [][]edgeTo
	estimate   []float64
	expansions []int
}

type edgeTo struct {
	to   int
	cost float64
}

func (g *intGraph) HeuristicEstimate(node, goal int) float64 {
	if g.estimate == nil {
		return 0
	}
	return g.estimate[node]
}

func (g *intGraph) ExactDistance(from, to int) (float64, error) {
	best := math.Inf(1)
	for _, e := range g.adjacency[from] {
		if e.to == to && e.cost < best {
			best = e.cost
		}
	}
	if math.IsInf(best, 1) {
		return 0, errNotAdjacent
	}
	return best, nil
}

func (g *intGraph) Neighbors(node int) (iter.Seq[int], error) {
	g.expansions[node]++
	return func(yield func(int) bool) {
		for _, e := range g.adjacency[node] {
			if !yield(e.to) {
				return
			}
		}
	}, nil
}

func randomGraph(rng *rand.Rand, nodes, edges int) *intGraph {
	g := &intGraph{adjacency: make([][]edgeTo, nodes), expansions: make([]int, nodes)}
	for i := 0; i < edges; i++ {
		from, to := rng.Intn(nodes), rng.Intn(nodes)
		g.adjacency[from] = append(g.adjacency[from], edgeTo{to: to, cost: float64(rng.Intn(20))})
	}
	return g
}

// dijkstraBaseline returns the exact cost from source to every node, O(n^2).
func dijkstraBaseline(adjacency [][]edgeTo, source int) []float64 {
	dist := make([]float64, len(adjacency))
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	done := make([]bool, len(adjacency))
	for {
		u := -1
		for i := range dist {
			if !done[i] && !math.IsInf(dist[i], 1) && (u == -1 || dist[i] < dist[u]) {
				u = i
			}
		}
		if u == -1 {
			return dist
		}
		done[u] = true
		for _, e := range adjacency[u] {
			if dist[u]+e.cost < dist[e.to] {
				dist[e.to] = dist[u] + e.cost
			}
		}
	}
}

func reversed(adjacency [][]edgeTo) [][]edgeTo {
	out := make([][]edgeTo, len(adjacency))
	for from, edges := range adjacency {
		for _, e := range edges {
			out[e.to] = append(out[e.to], edgeTo{to: from, cost: e.cost})
		}
	}
	return out
}

func pathCost(t *testing.T, g *intGraph, path []int) float64 {
	t.Helper()
	total := 0.0
	for i := 1; i < len(path); i++ {
		cost, err := g.ExactDistance(path[i-1], path[i])
		require.NoError(t, err)
		total += cost
	}
	return total
}

func TestSearchMatchesDijkstraBaseline(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	forEachOpenSet(t, func(t *testing.T, kind OpenSetKind) {
		for round := 0; round < 60; round++ {
			g := randomGraph(rng, 25, 70)
			start, goal := rng.Intn(25), rng.Intn(25)

			want := dijkstraBaseline(g.adjacency, start)[goal]
			if round%2 == 1 {
				// Half the exact remaining cost is admissible.
				toGoal := dijkstraBaseline(reversed(g.adjacency), goal)
				g.estimate = make([]float64, len(toGoal))
				for i, d := range toGoal {
					if !math.IsInf(d, 1) {
						g.estimate[i] = d / 2
					}
				}
			}

			result, err := Search[int](context.Background(), g, start, goal, WithOpenSet(kind))
			require.NoError(t, err)

			if math.IsInf(want, 1) {
				assert.False(t, result.Found, "round %d", round)
				continue
			}
			require.True(t, result.Found, "round %d", round)
			assert.Equal(t, want, result.TotalCost, "round %d", round)
			assert.Equal(t, want, pathCost(t, g, result.Path), "round %d", round)
			assert.Equal(t, start, result.Path[0])
			assert.Equal(t, goal, result.Path[len(result.Path)-1])
			for node, count := range g.expansions {
				assert.LessOrEqual(t, count, 1, "node %d expanded %d times", node, count)
			}
		}
	})
}

func TestSearchOpenSetsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 30; round++ {
		g := randomGraph(rng, 30, 90)
		start, goal := rng.Intn(30), rng.Intn(30)

		indexed, err := Search[int](context.Background(), g, start, goal, WithOpenSet(OpenSetIndexedHeap))
		require.NoError(t, err)
		g.expansions = make([]int, 30)
		lazy, err := Search[int](context.Background(), g, start, goal, WithOpenSet(OpenSetLazyHeap))
		require.NoError(t, err)

		assert.Equal(t, indexed.Found, lazy.Found)
		assert.Equal(t, indexed.TotalCost, lazy.TotalCost)
		assert.Equal(t, indexed.Path, lazy.Path, "round %d", round)
	}
}

func TestFindPath(t *testing.T) {
	nodes := map[string][]edge{
		"A": {{"B", 100}, {"C", 20}},
		"C": {{"D", 20}},
		"D": {{"B", 20}},
	}
	neighbors := func(n string) iter.Seq[string] {
		return func(yield func(string) bool) {
			for _, e := range nodes[n] {
				if !yield(e.to) {
					return
				}
			}
		}
	}
	distance := func(from, to string) float64 {
		for _, e := range nodes[from] {
			if e.to == to {
				return e.cost
			}
		}
		return math.Inf(1)
	}

	t.Run("weighted", func(t *testing.T) {
		result, err := FindPath(context.Background(), "A", "B", Funcs[string]{
			Neighbors: neighbors,
			Heuristic: func(string, string) float64 { return 1 },
			Distance:  distance,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C", "D", "B"}, result.Path)
	})

	t.Run("unit distance default", func(t *testing.T) {
		result, err := FindPath(context.Background(), "A", "B", Funcs[string]{Neighbors: neighbors})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, result.Path)
		assert.Equal(t, 1.0, result.TotalCost)
	})

	t.Run("goal override", func(t *testing.T) {
		result, err := FindPath(context.Background(), "A", "B", Funcs[string]{
			Neighbors:   neighbors,
			Distance:    distance,
			GoalReached: func(current, _ string) bool { return current == "D" },
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C", "D"}, result.Path)
	})

	t.Run("reverse", func(t *testing.T) {
		result, err := FindPath(context.Background(), "A", "B", Funcs[string]{
			Neighbors: neighbors,
			Distance:  distance,
		}, WithReversePath())
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D", "C", "A"}, result.Path)
	})

	t.Run("neighbors required", func(t *testing.T) {
		_, err := FindPath(context.Background(), "A", "B", Funcs[string]{})
		assert.ErrorIs(t, err, ErrNoNeighbors)
	})
}

// lockedLetterGraph serializes Neighbors so the call counter can be shared.
type lockedLetterGraph struct {
	*letterGraph
	mu sync.Mutex
}

func (g *lockedLetterGraph) Neighbors(node string) (iter.Seq[string], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.letterGraph.Neighbors(node)
}

func TestSearchAll(t *testing.T) {
	graph := &lockedLetterGraph{letterGraph: newLetterGraph(map[string][]edge{
		"A": {{"B", 100}, {"C", 20}},
		"C": {{"D", 20}},
		"D": {{"B", 20}},
	})}
	queries := []Query[string]{
		{Start: "A", Goal: "B"},
		{Start: "C", Goal: "B"},
		{Start: "B", Goal: "A"},
		{Start: "D", Goal: "D"},
	}

	results, err := SearchAll[string](context.Background(), graph, queries, WithWorkers(3))
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	assert.Equal(t, []string{"A", "C", "D", "B"}, results[0].Path)
	assert.Equal(t, []string{"C", "D", "B"}, results[1].Path)
	assert.False(t, results[2].Found)
	assert.Equal(t, []string{"D"}, results[3].Path)
}

func TestSearchAllStopsOnError(t *testing.T) {
	graph := failingNeighbors{newLetterGraph(nil)}
	queries := []Query[string]{{Start: "A", Goal: "B"}, {Start: "B", Goal: "C"}}

	results, err := SearchAll[string](context.Background(), graph, queries, WithWorkers(1))
	assert.ErrorIs(t, err, errNeighborSource)
	assert.Nil(t, results)
}

func TestStepperMatchesSearch(t *testing.T) {
	edges := map[string][]edge{
		"A": {{"B", 100}, {"C", 20}},
		"C": {{"D", 20}},
		"D": {{"B", 20}},
	}
	want, err := Search[string](context.Background(), newLetterGraph(edges), "A", "B")
	require.NoError(t, err)

	stepper := NewStepper[string](context.Background(), newLetterGraph(edges), "A", "B")
	defer stepper.Close()

	var (
		snapshot StepSnapshot[string]
		visited  []string
	)
	for !stepper.Done() {
		snapshot, err = stepper.Step()
		require.NoError(t, err)
		visited = append(visited, snapshot.Current)
	}

	assert.True(t, snapshot.Done)
	assert.True(t, snapshot.Found)
	assert.Equal(t, want.Path, snapshot.Path)
	assert.Equal(t, want.TotalCost, snapshot.Cost)
	assert.Equal(t, want.ExpandedNodes, snapshot.StepIndex)
	assert.Equal(t, []string{"A", "C", "D", "B"}, visited)
	assert.Equal(t, "D", snapshot.CameFrom["B"])
	assert.True(t, snapshot.Closed["C"])

	result, ok := stepper.Result()
	require.True(t, ok)
	assert.Equal(t, want, result)

	// Stepping a finished search keeps returning the final snapshot.
	again, err := stepper.Step()
	require.NoError(t, err)
	assert.True(t, again.Done)
	assert.Equal(t, want.Path, again.Path)
}

func TestStepperSnapshotTracksOpenSet(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{
		"A": {{"B", 100}, {"C", 20}},
		"C": {{"D", 20}},
		"D": {{"B", 20}},
	})
	stepper := NewStepper[string](context.Background(), graph, "A", "B")
	defer stepper.Close()

	snapshot, err := stepper.Step()
	require.NoError(t, err)
	assert.Equal(t, "A", snapshot.Current)
	assert.False(t, snapshot.Done)
	assert.Equal(t, []string{"B", "C"}, slices.Sorted(maps.Keys(snapshot.Open)))
	assert.Equal(t, map[string]bool{"A": true}, snapshot.Closed)
}

func TestStepperUnreachable(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{"A": {{"B", 1}}})
	stepper := NewStepper[string](context.Background(), graph, "A", "Z")
	defer stepper.Close()

	var (
		snapshot StepSnapshot[string]
		err      error
	)
	for i := 0; i < 10 && !stepper.Done(); i++ {
		snapshot, err = stepper.Step()
		require.NoError(t, err)
	}
	assert.True(t, snapshot.Done)
	assert.False(t, snapshot.Found)
	assert.Nil(t, snapshot.Path)
}

func TestStepperCanceled(t *testing.T) {
	graph := newLetterGraph(map[string][]edge{"A": {{"B", 1}}})
	ctx, cancel := context.WithCancel(context.Background())
	stepper := NewStepper[string](ctx, graph, "A", "B")
	cancel()

	_, err := stepper.Step()
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, stepper.Done())
}

func TestStepperClose(t *testing.T) {
	var completed int
	observer := ObserverFunc(func(context.Context, Stats, error) { completed++ })
	graph := newLetterGraph(map[string][]edge{"A": {{"B", 1}}})
	stepper := NewStepper[string](context.Background(), graph, "A", "B", WithObserver(observer))

	stepper.Close()
	stepper.Close()
	snapshot, err := stepper.Step()
	require.NoError(t, err)
	assert.True(t, snapshot.Done)
	assert.Equal(t, 1, completed)
}
