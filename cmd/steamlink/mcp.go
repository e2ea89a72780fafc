package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/internal/sink"
	"github.com/hazyhaar/steamlink/trigger"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve steamlink_classify and steamlink_open as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			// stdout carries the protocol; events only go to the log.
			sinkR := sink.NewRouter(a.logger, a.logSink())
			defer sinkR.Close()

			t := trigger.New(trigger.Config{Dispatcher: a.launcher(cfg), Sink: sinkR, Logger: a.logger})
			srv := trigger.NewMCPServer(t, version)

			a.logger.Info("steamlink: mcp serving on stdio")
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
