package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newRunCmd() *cobra.Command {
	var (
		watch   bool
		noVCS   bool
		timings bool
		envs    []string
	)

	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run the pipeline or the selected steps",
		Long: "Run every step of the pipeline, or only the subtrees named by targets.\n" +
			"Targets are step paths such as build or build/test.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseAssignments(envs)
			if err != nil {
				return err
			}

			opts := c.options(args)
			opts.Environment = env
			opts.NoVCS = noVCS
			opts.Timings = timings

			if watch {
				return c.app.Watch(cmd.Context(), opts)
			}
			return c.app.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Run again whenever a file in the working directory changes")
	cmd.Flags().BoolVar(&noVCS, "no-vcs", false, "Do not describe the git revision")
	cmd.Flags().BoolVar(&timings, "timings", false, "Print how long every step took")
	cmd.Flags().StringArrayVarP(&envs, "env", "e", nil, "Set an environment variable (KEY=VALUE), overriding the pipeline file")

	return cmd
}

// parseAssignments turns KEY=VALUE flags into a map. Later flags win.
func parseAssignments(assignments []string) (map[string]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, zerr.With(
				zerr.Wrap(domain.ErrConfiguration, "environment flag must be KEY=VALUE"),
				"value", assignment,
			)
		}
		env[key] = value
	}
	return env, nil
}
