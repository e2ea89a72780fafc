package main

import (
	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/handoff"
	"github.com/hazyhaar/steamlink/kit"
	"github.com/hazyhaar/steamlink/trigger"
)

func newOpenCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Open a Steam web page in the Steam client; other URLs are ignored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			var d handoff.Dispatcher = a.launcher(cfg)
			if dryRun {
				d = handoff.NewPrinter(a.stdout)
			}
			t := trigger.New(trigger.Config{Dispatcher: d, Logger: a.logger})

			res, err := t.Invoke(kit.WithTransport(cmd.Context(), "cli"), args[0])
			if err != nil {
				return err
			}
			if !res.Acted {
				a.logger.Debug("steamlink: nothing to open", "url", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the deep link instead of launching it")
	return cmd
}
