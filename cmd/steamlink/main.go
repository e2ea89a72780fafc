// Command steamlink opens Steam web pages in the Steam desktop client.
//
// Usage:
//
//	steamlink classify https://store.steampowered.com/app/730/   # print the deep link
//	steamlink open https://store.steampowered.com/app/730/       # hand it to the OS
//	steamlink watch -c steamlink.yaml                            # keep an affordance in browser tabs
//	steamlink serve                                              # loopback HTTP trigger
//	steamlink mcp                                                # MCP tools over stdio
//	steamlink inspect --url <url> page.html                      # dry-run injection into saved HTML
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/handoff"
	"github.com/hazyhaar/steamlink/internal/config"
)

var version = "dev"

// app carries the global flags and the writers subcommands print to.
type app struct {
	configPath string
	logLevel   string

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "steamlink:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "steamlink",
		Short:         "Open Steam store and community pages in the Steam client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.logger = newLogger(a.stderr, a.logLevel)
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to steamlink.yaml (STEAMLINK_* variables override it)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newClassifyCmd(a),
		newOpenCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newInspectCmd(a),
	)
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

func (a *app) loadConfig() (*config.Config, error) {
	return config.Load(a.configPath)
}

// launcher is the OS protocol handler, or the configured replacement.
func (a *app) launcher(cfg *config.Config) *handoff.Launcher {
	opts := []handoff.LauncherOption{handoff.WithLauncherLogger(a.logger)}
	if l := cfg.Trigger.Launcher; len(l) > 0 {
		opts = append(opts, handoff.WithCommand(l[0], l[1:]...))
	}
	return handoff.NewLauncher(opts...)
}
