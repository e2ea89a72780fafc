// Package steamwatch runs the presence monitor in real browser tabs. It
// owns a Chrome instance, opens the configured pages, attaches one
// injector.Monitor per tab and forwards every event to the sinks.
package steamwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/steamlink/handoff"
	"github.com/hazyhaar/steamlink/idgen"
	"github.com/hazyhaar/steamlink/injector"
	"github.com/hazyhaar/steamlink/internal/browser"
	"github.com/hazyhaar/steamlink/internal/config"
	"github.com/hazyhaar/steamlink/internal/guard"
	"github.com/hazyhaar/steamlink/internal/sink"
	"github.com/hazyhaar/steamlink/trigger"
)

// ErrUnknownPage is returned for a page ID the watcher is not watching.
var ErrUnknownPage = errors.New("steamwatch: unknown page")

// page is one watched tab with its document bridge and monitor.
type page struct {
	cfg    config.PageConfig
	tab    *browser.Tab
	doc    *browser.Document
	mon    *injector.Monitor
	cancel context.CancelFunc
}

func (p *page) close() {
	p.mon.Stop()
	p.cancel()
	p.doc.Close()
	_ = p.tab.Close()
}

// Watcher is the top-level orchestrator. Create one per steamlink process.
type Watcher struct {
	cfg    *config.Config
	mgr    *browser.Manager
	sinkR  *sink.Router
	trig   *trigger.Trigger
	pages  map[string]*page // keyed by page ID
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a Watcher from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode, err := browser.ParseMode(cfg.Browser.Stealth)
	if err != nil {
		return nil, err
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Mode:             mode,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	sinkR := sink.NewRouter(logger, sinks...)
	return &Watcher{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sinkR,
		trig:   trigger.New(trigger.Config{Sink: sinkR, Logger: logger}),
		pages:  make(map[string]*page),
		logger: logger,
	}, nil
}

// Start launches the browser and watches every configured page. A page
// that fails to open is logged and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("steamwatch: start browser: %w", err)
	}

	w.mgr.SetRecycleHooks(browser.RecycleHooks{
		Before: w.detachAll,
		After:  func(*rod.Browser) { w.reattachAll(ctx) },
	})

	for _, p := range w.cfg.Pages {
		if err := w.WatchPage(ctx, p); err != nil {
			w.logger.Error("steamwatch: failed to watch page", "url", p.URL, "error", err)
		}
	}
	return nil
}

// WatchPage opens pageCfg.URL in a new tab and attaches a monitor to it.
// An empty ID gets a generated one. Watching an ID twice replaces the
// previous tab.
func (w *Watcher) WatchPage(ctx context.Context, pageCfg config.PageConfig) error {
	if pageCfg.ID == "" {
		pageCfg.ID = idgen.PageID()
	}
	if err := guard.Identifier(pageCfg.ID); err != nil {
		return err
	}
	if err := guard.PageURL(pageCfg.URL); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watchPageLocked(ctx, pageCfg)
}

func (w *Watcher) watchPageLocked(ctx context.Context, pageCfg config.PageConfig) error {
	if old, ok := w.pages[pageCfg.ID]; ok {
		old.close()
		delete(w.pages, pageCfg.ID)
	}

	tab, err := browser.OpenTab(ctx, w.mgr, pageCfg.URL, pageCfg.ID)
	if err != nil {
		return fmt.Errorf("steamwatch: open tab: %w", err)
	}

	pageCtx, cancel := context.WithCancel(ctx)
	logger := w.logger.With("page_id", pageCfg.ID)

	doc, err := browser.Attach(pageCtx, tab.Page, logger)
	if err != nil {
		cancel()
		_ = tab.Close()
		return fmt.Errorf("steamwatch: attach bridge: %w", err)
	}

	mc := w.cfg.Monitor
	mon := injector.New(injector.Config{
		Document:      doc,
		Dispatcher:    browser.NewPageDispatcher(tab.Page),
		Sink:          w.sinkR,
		PageID:        pageCfg.ID,
		Selectors:     mc.Selectors,
		PollInterval:  mc.PollInterval,
		PressDuration: mc.PressDuration,
		Label:         mc.Label,
		Title:         mc.Title,
		Logger:        w.logger,
	})
	mon.Start(pageCtx)

	w.pages[pageCfg.ID] = &page{cfg: pageCfg, tab: tab, doc: doc, mon: mon, cancel: cancel}
	w.logger.Info("steamwatch: watching page", "url", pageCfg.URL, "id", pageCfg.ID)
	return nil
}

// Pages lists the watched page IDs, sorted.
func (w *Watcher) Pages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.pages))
	for id := range w.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the monitor state of one page.
func (w *Watcher) Snapshot(pageID string) (injector.State, error) {
	w.mu.Lock()
	p, ok := w.pages[pageID]
	w.mu.Unlock()
	if !ok {
		return injector.State{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	return p.mon.Snapshot(), nil
}

// NewTrigger returns a trigger dispatching through d whose events go to
// the watcher's sinks.
func (w *Watcher) NewTrigger(d handoff.Dispatcher) *trigger.Trigger {
	return trigger.New(trigger.Config{Dispatcher: d, Sink: w.sinkR, Logger: w.logger})
}

// TriggerPage is the toolbar action for a watched tab: it reads the tab's
// current location and dispatches its deep link inside that tab. Any
// Steam page qualifies, injectable or not.
func (w *Watcher) TriggerPage(ctx context.Context, pageID string) (trigger.Result, error) {
	w.mu.Lock()
	p, ok := w.pages[pageID]
	w.mu.Unlock()
	if !ok {
		return trigger.Result{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}

	loc, err := p.tab.Location(ctx)
	if err != nil {
		return trigger.Result{}, err
	}
	return w.trig.InvokeWith(ctx, loc, browser.NewPageDispatcher(p.tab.Page))
}

// Stop closes every tab, the sinks and the browser.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, p := range w.pages {
		p.close()
		w.logger.Info("steamwatch: stopped page", "id", id)
	}
	w.pages = make(map[string]*page)

	if err := w.sinkR.Close(); err != nil {
		w.logger.Warn("steamwatch: close sinks", "error", err)
	}
	if err := w.mgr.Close(); err != nil {
		w.logger.Warn("steamwatch: close browser", "error", err)
	}
}

func (w *Watcher) detachAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.pages {
		p.mon.Stop()
		p.cancel()
		p.doc.Close()
	}
}

// reattachAll reopens every page on the recycled browser, at the URL it
// was configured with.
func (w *Watcher) reattachAll(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old := w.pages
	w.pages = make(map[string]*page)
	for id, p := range old {
		if err := w.watchPageLocked(ctx, p.cfg); err != nil {
			w.logger.Error("steamwatch: reattach failed", "id", id, "url", p.cfg.URL, "error", err)
		}
	}
}
