package grid

import (
	"fmt"
	"iter"
	"math/rand"
	"strings"
)

// Maze is an ASCII maze where every space is a walkable position.
type Maze struct {
	lines  []string
	width  int
	height int
}

// Parse reads a maze from text. Surrounding blank lines are ignored; lines
// may have different lengths, missing characters count as walls.
func Parse(text string) (*Maze, error) {
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidMaze)
	}
	lines := strings.Split(text, "\n")
	maze := &Maze{lines: make([]string, len(lines)), height: len(lines)}
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		maze.lines[i] = line
		maze.width = max(maze.width, len(line))
	}
	return maze, nil
}

// Width is the length of the longest line.
func (m *Maze) Width() int { return m.width }

// Height is the number of lines.
func (m *Maze) Height() int { return m.height }

// Open reports whether p is inside the maze and walkable.
func (m *Maze) Open(p Point) bool {
	if p.Y < 0 || p.Y >= m.height || p.X < 0 || p.X >= len(m.lines[p.Y]) {
		return false
	}
	return m.lines[p.Y][p.X] == ' '
}

// Corners returns the upper-left and lower-right cells of a generated maze.
func (m *Maze) Corners() (start, goal Point) {
	return Point{X: 1, Y: 1}, Point{X: m.width - 2, Y: m.height - 2}
}

// HeuristicEstimate is the straight-line distance, which never exceeds the
// number of unit moves.
func (m *Maze) HeuristicEstimate(node, goal Point) float64 {
	return Euclidean(node, goal)
}

// ExactDistance is 1 for adjacent positions.
func (m *Maze) ExactDistance(from, to Point) (float64, error) {
	return unitStep(from, to)
}

// Neighbors yields the open positions next to node.
func (m *Maze) Neighbors(node Point) (iter.Seq[Point], error) {
	return func(yield func(Point) bool) {
		for _, d := range directions {
			next := node.Add(d)
			if m.Open(next) && !yield(next) {
				return
			}
		}
	}, nil
}

// Draw returns the maze with every position of path replaced by mark.
func (m *Maze) Draw(path []Point, mark byte) string {
	onPath := make(map[Point]bool, len(path))
	for _, p := range path {
		onPath[p] = true
	}
	var b strings.Builder
	for y, line := range m.lines {
		for x := 0; x < len(line); x++ {
			if onPath[Point{X: x, Y: y}] {
				b.WriteByte(mark)
			} else {
				b.WriteByte(line[x])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Generate builds a perfect maze of w by h cells with a randomized
// depth-first walk and returns its ASCII form.
func Generate(w, h int, rng *rand.Rand) string {
	if w < 1 || h < 1 {
		return ""
	}
	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}
	horizontal := make([][]string, h+1)
	for y := range horizontal {
		horizontal[y] = make([]string, 0, w+1)
		for x := 0; x < w; x++ {
			horizontal[y] = append(horizontal[y], "+--")
		}
		horizontal[y] = append(horizontal[y], "+")
	}
	vertical := make([][]string, h)
	for y := range vertical {
		vertical[y] = make([]string, 0, w+1)
		for x := 0; x < w; x++ {
			vertical[y] = append(vertical[y], "|  ")
		}
		vertical[y] = append(vertical[y], "|")
	}

	first := Point{X: rng.Intn(w), Y: rng.Intn(h)}
	visited[first.Y][first.X] = true
	stack := []Point{first}
	candidates := make([]Point, 0, len(directions))
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		candidates = candidates[:0]
		for _, d := range directions {
			next := current.Add(d)
			if next.X >= 0 && next.X < w && next.Y >= 0 && next.Y < h && !visited[next.Y][next.X] {
				candidates = append(candidates, next)
			}
		}
		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		next := candidates[rng.Intn(len(candidates))]
		if next.X == current.X {
			horizontal[max(current.Y, next.Y)][current.X] = "+  "
		} else {
			vertical[current.Y][max(current.X, next.X)] = "   "
		}
		visited[next.Y][next.X] = true
		stack = append(stack, next)
	}

	var b strings.Builder
	for y := 0; y <= h; y++ {
		b.WriteString(strings.Join(horizontal[y], ""))
		if y < h {
			b.WriteByte('\n')
			b.WriteString(strings.Join(vertical[y], ""))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
