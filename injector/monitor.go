package injector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/steamlink/deeplink"
	"github.com/hazyhaar/steamlink/event"
	"github.com/hazyhaar/steamlink/handoff"
)

// ErrNotRunning is returned by Activate when the monitor loop is stopped.
var ErrNotRunning = errors.New("injector: monitor not running")

// Config for creating a Monitor.
type Config struct {
	Document   Document
	Dispatcher handoff.Dispatcher
	Sink       EventSink // optional
	PageID     string

	// Selectors are the candidate containers in priority order.
	// Default: DefaultSelectors.
	Selectors []string

	// PollInterval is the safety-net location check. Default: 500ms.
	PollInterval time.Duration

	// PressDuration is how long the pressed class stays on after an
	// activation. Default: 300ms.
	PressDuration time.Duration

	Label string
	Title string

	// Classify maps a location to a classification.
	// Default: deeplink.ClassifyInjectable.
	Classify func(string) deeplink.Classification

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Selectors == nil {
		c.Selectors = DefaultSelectors
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.PressDuration <= 0 {
		c.PressDuration = 300 * time.Millisecond
	}
	if c.Classify == nil {
		c.Classify = deeplink.ClassifyInjectable
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Monitor keeps one affordance consistent with one document's location.
type Monitor struct {
	cfg    Config
	logger *slog.Logger

	// mu serialises state and DOM work between the loop and direct callers
	// of Reevaluate.
	mu    sync.Mutex
	state State

	// runMu guards the loop lifecycle.
	runMu    sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	activate chan Signal
}

// New creates a Monitor. Call Start to begin watching.
func New(cfg Config) *Monitor {
	cfg.defaults()
	return &Monitor{
		cfg:    cfg,
		logger: cfg.Logger.With("page_id", cfg.PageID),
	}
}

// Start resets the state and starts the loop. Calling Start on a running
// monitor first stops the previous loop and its poll ticker, so repeated
// setup never accumulates timers.
func (m *Monitor) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.stopLocked()

	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.activate = make(chan Signal, 1)
	go m.loop(loopCtx, m.done, m.activate)

	m.logger.Debug("injector: monitor started", "poll", m.cfg.PollInterval)
}

// Stop cancels the loop and waits for it to exit. The mounted affordance,
// if any, is left in place.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.activate = nil
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Activate queues an activation of the mounted affordance on the loop, as
// if the user clicked it.
func (m *Monitor) Activate(ctx context.Context) error {
	m.runMu.Lock()
	ch, done := m.activate, m.done
	m.runMu.Unlock()
	if ch == nil {
		return ErrNotRunning
	}
	select {
	case ch <- Signal{Kind: SignalActivate}:
		return nil
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reevaluate is the single transition function. href may be empty, in
// which case the document is asked for its location. Reevaluating an
// unchanged location whose affordance state already matches the document
// is a no-op.
func (m *Monitor) Reevaluate(ctx context.Context, href string, source SignalKind) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reevaluateLocked(ctx, href, source)
}

func (m *Monitor) reevaluateLocked(ctx context.Context, href string, source SignalKind) (Transition, error) {
	doc := m.cfg.Document

	if href == "" {
		loc, err := doc.Location(ctx)
		if err != nil {
			return TransitionNone, fmt.Errorf("injector: location: %w", err)
		}
		href = loc
	}

	if href == m.state.LastObservedURL {
		present, err := doc.Exists(ctx, "#"+AffordanceID)
		if err != nil {
			return TransitionNone, fmt.Errorf("injector: probe affordance: %w", err)
		}
		if present == m.state.Mounted {
			return TransitionNone, nil
		}
	}

	prev := m.state
	m.state = State{LastObservedURL: href}

	removed, err := doc.Remove(ctx, AffordanceID)
	if err != nil {
		// The old affordance may still be in the page. Forget the URL so
		// the next signal retries.
		prev.LastObservedURL = ""
		m.state = prev
		return TransitionNone, fmt.Errorf("injector: remove affordance: %w", err)
	}

	c := m.cfg.Classify(href)
	if !c.Injectable() {
		if !removed && !prev.Mounted {
			m.logger.Debug("injector: not an injectable page", "url", href, "kind", c.Kind)
			return TransitionNone, nil
		}
		m.logger.Info("injector: affordance removed", "url", href, "source", source)
		ev := event.New(event.Unmounted).WithClassification(c)
		ev.URL = href
		ev.Source = string(source)
		m.emit(ctx, ev)
		return TransitionUnmounted, nil
	}

	container, a, err := mount(ctx, doc, m.cfg.Selectors, newAffordance(c, m.cfg.Label, m.cfg.Title))
	if err != nil {
		m.state = State{}
		return TransitionNone, err
	}
	m.state = State{
		LastObservedURL: href,
		Mounted:         true,
		Link:            c.Link,
		Kind:            c.Kind,
		Container:       container,
	}

	m.logger.Info("injector: affordance mounted",
		"url", href, "kind", c.Kind, "id", c.Identifier,
		"container", container, "fixed", a.Fixed, "source", source)

	ev := event.New(event.Mounted).WithClassification(c)
	ev.URL = href
	ev.Container = container
	ev.Fixed = a.Fixed
	ev.Source = string(source)
	m.emit(ctx, ev)

	if removed || prev.Mounted {
		return TransitionRemounted, nil
	}
	return TransitionMounted, nil
}

// loop is the only goroutine touching the document while the monitor
// runs: host signals, the poll ticker and the press timer all land here.
func (m *Monitor) loop(ctx context.Context, done chan struct{}, activate <-chan Signal) {
	defer close(done)

	poll := time.NewTicker(m.cfg.PollInterval)
	defer poll.Stop()

	press := newPressTimer()
	defer press.stop()

	signals := m.cfg.Document.Signals()

	for {
		select {
		case <-ctx.Done():
			return

		case s, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			m.handle(ctx, s, press)

		case s := <-activate:
			m.handle(ctx, s, press)

		case <-poll.C:
			m.handle(ctx, Signal{Kind: SignalPoll}, press)

		case <-press.C():
			press.clear()
			m.mu.Lock()
			if err := m.cfg.Document.SetClass(ctx, AffordanceID, PressedClass, false); err != nil {
				m.logger.Debug("injector: clear pressed state", "error", err)
			}
			m.mu.Unlock()
		}
	}
}

func (m *Monitor) handle(ctx context.Context, s Signal, press *pressTimer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch s.Kind {
	case SignalActivate:
		if m.activateLocked(ctx, s) {
			press.arm(m.cfg.PressDuration)
		}
		return

	case SignalMutation, SignalPoll:
		// Only a location change, or a mounted affordance that may have been
		// wiped by the page, warrants a reevaluation.
		href := s.Href
		if href == "" {
			loc, err := m.cfg.Document.Location(ctx)
			if err != nil {
				m.logger.Debug("injector: location", "source", s.Kind, "error", err)
				return
			}
			href = loc
		}
		if href == m.state.LastObservedURL && (s.Kind == SignalPoll || !m.state.Mounted) {
			return
		}
		if href != m.state.LastObservedURL {
			m.logger.Debug("injector: location change detected", "source", s.Kind, "url", href)
		}
		s.Href = href
	}

	if _, err := m.reevaluateLocked(ctx, s.Href, s.Kind); err != nil {
		m.logger.Warn("injector: reevaluate failed", "source", s.Kind, "error", err)
	}
}

// activateLocked performs the hand-off for the mounted affordance. It
// reports whether the pressed state was applied.
func (m *Monitor) activateLocked(ctx context.Context, s Signal) bool {
	if !m.state.Mounted {
		m.logger.Debug("injector: activation without affordance ignored")
		return false
	}
	link := m.state.Link
	if s.Link != "" && s.Link != link {
		m.logger.Debug("injector: stale activation link", "got", s.Link, "current", link)
	}

	if err := m.cfg.Document.SetClass(ctx, AffordanceID, PressedClass, true); err != nil {
		m.logger.Debug("injector: set pressed state", "error", err)
	}

	ev := event.New(event.Handoff)
	ev.URL = m.state.LastObservedURL
	ev.Kind = m.state.Kind
	ev.Link = link
	ev.Source = string(SignalActivate)

	if err := m.cfg.Dispatcher.Dispatch(ctx, link); err != nil {
		m.logger.Warn("injector: hand-off dispatch failed", "link", link, "error", err)
		ev.Error = err.Error()
	} else {
		m.logger.Info("injector: hand-off dispatched", "link", link, "kind", m.state.Kind)
	}
	m.emit(ctx, ev)
	return true
}

func (m *Monitor) emit(ctx context.Context, ev event.Event) {
	if m.cfg.Sink == nil {
		return
	}
	ev.PageID = m.cfg.PageID
	if err := m.cfg.Sink.Send(ctx, ev); err != nil {
		m.logger.Warn("injector: send event failed", "type", ev.Type, "error", err)
	}
}

// pressTimer clears the pressed class a fixed delay after the last
// activation. A nil channel blocks forever in select.
type pressTimer struct {
	t *time.Timer
	c <-chan time.Time
}

func newPressTimer() *pressTimer { return &pressTimer{} }

func (p *pressTimer) C() <-chan time.Time { return p.c }

func (p *pressTimer) arm(d time.Duration) {
	p.stop()
	p.t = time.NewTimer(d)
	p.c = p.t.C
}

func (p *pressTimer) clear() {
	p.t = nil
	p.c = nil
}

func (p *pressTimer) stop() {
	if p.t != nil {
		p.t.Stop()
	}
	p.clear()
}
