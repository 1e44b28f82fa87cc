package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/plugin"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Serve requests from a host application",
	}
	cmd.AddCommand(c.newPluginExecuteCmd())
	return cmd
}

func (c *CLI) newPluginExecuteCmd() *cobra.Command {
	var requestPath string

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run the pipeline described by a JSON request and print a JSON response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, closeIn, err := openRequest(cmd, requestPath)
			if err != nil {
				return err
			}
			defer closeIn()

			handler := plugin.NewHandler(func(ctx context.Context, req plugin.Request) error {
				return c.app.Run(ctx, app.RunOptions{
					Dir:         req.WorkingDir,
					File:        req.Pipeline,
					Targets:     req.Targets,
					Environment: req.Environment,
				})
			})

			resp, err := handler.Serve(cmd.Context(), in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !resp.Success {
				return zerr.Wrap(domain.ErrBuildExecutionFailed, "plugin request failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "-", "Request file, or - for standard input")

	return cmd
}

func openRequest(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to open plugin request"), "path", path)
	}
	return f, func() { _ = f.Close() }, nil
}
