package cli

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdrpinto/astar"
	"github.com/pdrpinto/astar/graphs/grid"
)

func (c *CLI) mazeCommand() *cobra.Command {
	var (
		width  int
		height int
		seed   int64
		file   string
	)
	cmd := &cobra.Command{
		Use:   "maze",
		Short: "Generate a maze and draw its shortest path",
		Long: `Generate a random perfect maze, or read one from --file, and draw the
shortest path from the upper-left to the lower-right cell.

In a maze file every space is walkable and any other character is a wall.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var text string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("maze: %w", err)
				}
				text = string(data)
			} else {
				if width == 0 {
					width = c.cfg.Grid.MazeWidth
				}
				if height == 0 {
					height = c.cfg.Grid.MazeHeight
				}
				if width < 1 || height < 1 {
					return fmt.Errorf("maze: size %dx%d must be positive", width, height)
				}
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				logger.Debug("generating maze", "width", width, "height", height, "seed", seed)
				text = grid.Generate(width, height, rand.New(rand.NewSource(seed)))
			}

			maze, err := grid.Parse(text)
			if err != nil {
				return fmt.Errorf("maze: %w", err)
			}
			start, goal := maze.Corners()
			if !maze.Open(start) || !maze.Open(goal) {
				return fmt.Errorf("maze: %w: corners %v and %v must be open", grid.ErrInvalidMaze, start, goal)
			}

			p := newProgress(logger)
			result, err := astar.Search[grid.Point](ctx, maze, start, goal, c.searchOptions(ctx, "maze")...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colors := newPalette(out)
			if !result.Found {
				fmt.Fprintln(out, colors.warning.Render(iconWarning+" no path"))
				return nil
			}
			fmt.Fprint(out, colors.renderMaze(maze.Draw(result.Path, pathMark)))
			fmt.Fprintf(out, "%s %d moves, %d nodes expanded\n",
				colors.success.Render(iconSuccess), len(result.Path)-1, result.ExpandedNodes)
			p.done("Solved maze")
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "maze width in cells (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "maze height in cells (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the maze from a file instead of generating one")
	cmd.MarkFlagsMutuallyExclusive("file", "seed")
	return cmd
}
