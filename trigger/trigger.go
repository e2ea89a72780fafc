// Package trigger is the toolbar-style entry point: given any URL, open
// it in Steam when it is a Steam page, do nothing otherwise. It is
// reachable from the CLI, a loopback HTTP API and MCP.
package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/steamlink/deeplink"
	"github.com/hazyhaar/steamlink/event"
	"github.com/hazyhaar/steamlink/handoff"
	"github.com/hazyhaar/steamlink/injector"
	"github.com/hazyhaar/steamlink/kit"
)

// Config for creating a Trigger.
type Config struct {
	Dispatcher handoff.Dispatcher
	Sink       injector.EventSink // optional

	// Classify maps a URL to a classification. Default: deeplink.Classify,
	// which covers every Steam page, not only the injectable ones.
	Classify func(string) deeplink.Classification

	Logger *slog.Logger
}

// Trigger dispatches the deep link for a URL.
type Trigger struct {
	cfg    Config
	logger *slog.Logger
}

// Result reports what Invoke did.
type Result struct {
	Acted          bool                    `json:"acted"`
	Classification deeplink.Classification `json:"classification"`
}

// New creates a Trigger.
func New(cfg Config) *Trigger {
	if cfg.Classify == nil {
		cfg.Classify = deeplink.Classify
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Trigger{cfg: cfg, logger: cfg.Logger}
}

// Classify reports the classification without dispatching.
func (t *Trigger) Classify(rawURL string) deeplink.Classification {
	return t.cfg.Classify(rawURL)
}

// Invoke dispatches through the configured Dispatcher.
func (t *Trigger) Invoke(ctx context.Context, rawURL string) (Result, error) {
	return t.InvokeWith(ctx, rawURL, t.cfg.Dispatcher)
}

// InvokeWith dispatches through d, e.g. a dispatcher bound to one tab.
// A URL that is not a Steam page is not an error: the result has Acted
// false and nothing is dispatched or emitted.
func (t *Trigger) InvokeWith(ctx context.Context, rawURL string, d handoff.Dispatcher) (Result, error) {
	c := t.cfg.Classify(rawURL)
	res := Result{Classification: c}
	if !c.Actionable() {
		t.logger.Debug("trigger: not a steam page", "url", rawURL)
		return res, nil
	}

	ev := event.New(event.Trigger).WithClassification(c)
	ev.URL = rawURL
	ev.Source = kit.GetTransport(ctx)

	if err := d.Dispatch(ctx, c.Link); err != nil {
		t.logger.Warn("trigger: dispatch failed", "link", c.Link, "error", err)
		ev.Error = err.Error()
		t.emit(ctx, ev)
		return res, fmt.Errorf("trigger: dispatch %s: %w", c.Link, err)
	}

	res.Acted = true
	t.logger.Info("trigger: dispatched", "url", rawURL, "kind", c.Kind, "link", c.Link)
	t.emit(ctx, ev)
	return res, nil
}

func (t *Trigger) emit(ctx context.Context, ev event.Event) {
	if t.cfg.Sink == nil {
		return
	}
	if err := t.cfg.Sink.Send(ctx, ev); err != nil {
		t.logger.Warn("trigger: send event failed", "error", err)
	}
}

// urlRequest is the argument of both surfaces.
type urlRequest struct {
	URL string `json:"url"`
}

// Endpoints exposes open and classify as kit endpoints, wrapped in
// request logging.
func (t *Trigger) Endpoints() (open, classify kit.Endpoint) {
	open = func(ctx context.Context, req any) (any, error) {
		r := req.(*urlRequest)
		if r.URL == "" {
			return nil, errMissingURL
		}
		return t.Invoke(ctx, r.URL)
	}
	classify = func(_ context.Context, req any) (any, error) {
		r := req.(*urlRequest)
		if r.URL == "" {
			return nil, errMissingURL
		}
		return t.Classify(r.URL), nil
	}
	return kit.Logging(t.logger, "open")(open), kit.Logging(t.logger, "classify")(classify)
}
