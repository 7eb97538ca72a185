package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotAdjacent is returned when an edge cost is requested for two
	// points that are not 4-neighbors.
	ErrNotAdjacent = errors.New("grid: points are not adjacent")
	// ErrInvalidMaze is returned when maze text cannot be parsed.
	ErrInvalidMaze = errors.New("grid: invalid maze")
)

// Point is a cell position, X grows to the right and Y downwards.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the sum of p and d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns p minus q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// directions are the 4-neighborhood offsets: up, down, left, right.
var directions = [4]Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// Manhattan is the L1 distance between a and b.
func Manhattan(a, b Point) float64 {
	return math.Abs(float64(a.X-b.X)) + math.Abs(float64(a.Y-b.Y))
}

// Euclidean is the straight-line distance between a and b.
func Euclidean(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func unitStep(a, b Point) (float64, error) {
	if Manhattan(a, b) != 1 {
		return 0, fmt.Errorf("%w: %v -> %v", ErrNotAdjacent, a, b)
	}
	return 1, nil
}
