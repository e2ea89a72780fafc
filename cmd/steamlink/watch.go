package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/internal/config"
	"github.com/hazyhaar/steamlink/steamwatch"
	"github.com/hazyhaar/steamlink/trigger"
)

func newWatchCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "watch [url]...",
		Short: "Open pages in Chrome and keep an Open in Steam button on them",
		Long: "Opens every configured page, plus any URL given as argument, and keeps\n" +
			"one Open in Steam button on each tab while it navigates. With --listen,\n" +
			"the trigger routes and per-tab routes are served over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			for _, u := range args {
				cfg.Pages = append(cfg.Pages, config.PageConfig{URL: u})
			}
			if len(cfg.Pages) == 0 {
				return errors.New("no pages to watch: pass URLs or a config with pages")
			}

			ctx := cmd.Context()
			w, err := steamwatch.New(cfg, a.logger, a.sinks(cfg, a.stdout)...)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			if listen == "" {
				<-ctx.Done()
				return nil
			}

			r := trigger.NewRouter(w.NewTrigger(a.launcher(cfg)))
			w.RegisterHTTP(r)
			return serveHTTP(ctx, a.logger, listen, r)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "also serve HTTP routes on this address")
	return cmd
}
