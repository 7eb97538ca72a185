package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdrpinto/astar/graphs/transit"
)

func (c *CLI) tanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tan [FILE]",
		Short: "Solve a journey in the tan format",
		Long: `Read a journey in the tan format from FILE or standard input:

	<start id>
	<goal id>
	<N> then N stop lines: id,"name",description,latitude,longitude,...
	<M> then M link lines: <from id> <to id>

Prints the stop names of the shortest route, one per line, or IMPOSSIBLE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var input io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("tan: %w", err)
				}
				defer f.Close()
				input = f
			}

			problem, err := transit.ParseTan(input)
			if err != nil {
				return fmt.Errorf("tan: %w", err)
			}
			loggerFromContext(ctx).Debug("tan network", "stops", problem.Network.Len(), "from", problem.Start.ID, "to", problem.Goal.ID)

			result, err := problem.Network.Route(ctx, problem.Start, problem.Goal, c.searchOptions(ctx, "tan")...)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), transit.FormatTan(result))
			return err
		},
	}
}
