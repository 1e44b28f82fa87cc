package commands

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [targets...]",
		Short: "List the steps of the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.app.List(cmd.Context(), c.options(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				name := path.Base(entry.Path)
				if !entry.HasTask {
					name += "/"
				}
				_, _ = fmt.Fprintln(out, strings.Repeat("  ", entry.Depth)+name)
			}
			return nil
		},
	}
}
