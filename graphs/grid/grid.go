package grid

import (
	"iter"
	"math/rand"
)

// Grid is a rectangular board where Walls are blocked.
type Grid struct {
	Width  int
	Height int
	Walls  map[Point]bool
}

// In reports whether p lies on the board.
func (g Grid) In(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Free reports whether p lies on the board and is not a wall.
func (g Grid) Free(p Point) bool { return g.In(p) && !g.Walls[p] }

func (g Grid) HeuristicEstimate(node, goal Point) float64 { return Manhattan(node, goal) }

func (g Grid) ExactDistance(from, to Point) (float64, error) { return unitStep(from, to) }

func (g Grid) Neighbors(node Point) (iter.Seq[Point], error) {
	return func(yield func(Point) bool) {
		for _, d := range directions {
			next := node.Add(d)
			if g.Free(next) && !yield(next) {
				return
			}
		}
	}, nil
}

// RandomWalls grows clustered walls with random walks: each of clusters walks
// starts at a random cell and takes steps moves, turning every visited cell
// into a wall with probability density. Cells listed in keep stay free.
func RandomWalls(w, h, clusters, steps int, density float64, rng *rand.Rand, keep ...Point) map[Point]bool {
	walls := map[Point]bool{}
	if w <= 0 || h <= 0 {
		return walls
	}
	board := Grid{Width: w, Height: h}
	for c := 0; c < clusters; c++ {
		p := Point{X: rng.Intn(w), Y: rng.Intn(h)}
		for s := 0; s < steps; s++ {
			if rng.Float64() < density {
				walls[p] = true
			}
			if next := p.Add(directions[rng.Intn(len(directions))]); board.In(next) {
				p = next
			}
		}
	}
	for _, p := range keep {
		delete(walls, p)
	}
	return walls
}

// RandomGrid builds a w by h grid with clustered walls and picks distinct free
// start and goal cells.
func RandomGrid(w, h, clusters, steps int, density float64, rng *rand.Rand) (g Grid, start, goal Point) {
	start = Point{X: rng.Intn(w), Y: rng.Intn(h)}
	goal = start
	for goal == start && w*h > 1 {
		goal = Point{X: rng.Intn(w), Y: rng.Intn(h)}
	}
	g = Grid{Width: w, Height: h, Walls: RandomWalls(w, h, clusters, steps, density, rng, start, goal)}
	return g, start, goal
}
