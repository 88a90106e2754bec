package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/server"
	"github.com/mrz1836/patchbay/internal/signal"
)

func newServeCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the patchbay HTTP API for the configured sandbox until interrupted.

The listen address defaults to server.addr (127.0.0.1:3000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := state.Logger()
			a, err := newApp(cmd.Context(), flags, logger)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			sig := signal.NewHandler(cmd.Context())
			defer sig.Stop()

			srv := server.New(a.cfg, server.Deps{
				Guard:    a.guard,
				Applier:  a.applier,
				Tools:    a.tools,
				VCS:      a.vcs,
				Proposer: a.proposer,
				Agent:    a.agent,
			}, logger)

			return srv.ListenAndServe(sig.Context(), func(bound string) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "patchbay listening on http://%s (sandbox %s)\n", bound, a.guard.Root())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
