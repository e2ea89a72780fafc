package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/event"
	"github.com/hazyhaar/steamlink/internal/config"
	"github.com/hazyhaar/steamlink/internal/sink"
	"github.com/hazyhaar/steamlink/trigger"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trigger over HTTP (POST /v1/open, GET /v1/classify)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Trigger.Listen = listen
			}

			sinkR := sink.NewRouter(a.logger, a.sinks(cfg, a.stdout)...)
			defer sinkR.Close()

			t := trigger.New(trigger.Config{Dispatcher: a.launcher(cfg), Sink: sinkR, Logger: a.logger})
			return serveHTTP(cmd.Context(), a.logger, cfg.Trigger.Listen, trigger.NewRouter(t))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:8734)")
	return cmd
}

// serveHTTP runs h on addr until ctx ends, then shuts down gracefully.
func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("steamlink: http listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sinks builds the configured event sinks. stdout sinks write to w;
// callback sinks log each event.
func (a *app) sinks(cfg *config.Config, w io.Writer) []sink.Sink {
	out := make([]sink.Sink, 0, len(cfg.Sinks))
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, sink.NewStdout(w))
		case "callback":
			out = append(out, a.logSink())
		}
	}
	return out
}

// logSink is an in-process callback sink logging each event.
func (a *app) logSink() sink.Sink {
	return sink.NewCallback(func(_ context.Context, e event.Event) error {
		a.logger.Info("steamlink: event",
			"type", e.Type, "page_id", e.PageID, "url", e.URL, "link", e.Link, "error", e.Error)
		return nil
	})
}
