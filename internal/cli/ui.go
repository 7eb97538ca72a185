package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconArrow   = "→"

	// pathMark replaces maze positions on the solution path.
	pathMark = '.'
)

// palette holds styles bound to one output, so colors are dropped when it is
// not a terminal.
type palette struct {
	title   lipgloss.Style
	path    lipgloss.Style
	wall    lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	header  lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:   r.NewStyle().Bold(true).Foreground(colorCyan),
		path:    r.NewStyle().Bold(true).Foreground(colorYellow),
		wall:    r.NewStyle().Foreground(colorDim),
		dim:     r.NewStyle().Foreground(colorDim),
		success: r.NewStyle().Foreground(colorGreen),
		warning: r.NewStyle().Foreground(colorYellow),
		header:  r.NewStyle().Foreground(colorGray).Bold(true),
	}
}

// renderMaze colors a drawn maze, styling runs of path marks and walls while
// keeping every character in place.
func (p palette) renderMaze(drawn string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(drawn, "\n") {
		body := strings.TrimSuffix(line, "\n")
		for len(body) > 0 {
			class := charClass(body[0])
			end := 1
			for end < len(body) && charClass(body[end]) == class {
				end++
			}
			run := body[:end]
			switch class {
			case classPath:
				b.WriteString(p.path.Render(run))
			case classWall:
				b.WriteString(p.wall.Render(run))
			default:
				b.WriteString(run)
			}
			body = body[end:]
		}
		if strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

const (
	classSpace = iota
	classPath
	classWall
)

func charClass(c byte) int {
	switch c {
	case ' ':
		return classSpace
	case pathMark:
		return classPath
	default:
		return classWall
	}
}

// routeTable lists the stations of a route.
func (p palette) routeTable(stations []string) string {
	rows := make([][]string, len(stations))
	for i, name := range stations {
		rows[i] = []string{strconv.Itoa(i + 1), name}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.dim).
		Headers("#", "Station").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
