package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	var noVCS bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment the pipeline starts with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.options(nil)
			opts.NoVCS = noVCS
			lines, err := c.app.Env(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noVCS, "no-vcs", false, "Do not describe the git revision")

	return cmd
}
