package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/handoff"
	"github.com/hazyhaar/steamlink/injector"
	"github.com/hazyhaar/steamlink/internal/guard"
	"github.com/hazyhaar/steamlink/internal/htmldoc"
)

// maxInspectBytes bounds the saved page read by inspect.
const maxInspectBytes = 32 << 20

func newInspectCmd(a *app) *cobra.Command {
	var pageURL string
	cmd := &cobra.Command{
		Use:   "inspect --url <url> [file.html]",
		Short: "Run one injection pass on saved HTML and print the result",
		Long: "Parses a saved page (or stdin) as if it were loaded at --url, runs the\n" +
			"presence monitor once and writes the resulting HTML to stdout. Useful to\n" +
			"check which container a page layout gives the button.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			data, err := guard.ReadAll(r, maxInspectBytes)
			if err != nil {
				return err
			}
			doc, err := htmldoc.Parse(bytes.NewReader(data), pageURL)
			if err != nil {
				return err
			}

			mc := cfg.Monitor
			mon := injector.New(injector.Config{
				Document:   doc,
				Dispatcher: handoff.NewPrinter(a.stderr),
				PageID:     "inspect",
				Selectors:  mc.Selectors,
				Label:      mc.Label,
				Title:      mc.Title,
				Logger:     a.logger,
			})
			tr, err := mon.Reevaluate(cmd.Context(), "", injector.SignalReady)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			st := mon.Snapshot()
			a.logger.Info("steamlink: inspect",
				"url", pageURL, "transition", tr, "kind", st.Kind, "link", st.Link,
				"container", st.Container, "mounted", st.Mounted)
			return doc.Render(a.stdout)
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "location the page was saved from")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
