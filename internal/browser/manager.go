// Package browser runs the Chrome instance steamlink watches pages in:
// launch or connect via Rod, recycle on memory or age, and expose each tab
// as an injector.Document.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

var (
	// ErrNoBrowser is returned when no Chrome is connected.
	ErrNoBrowser = errors.New("browser: no active browser")
	// ErrClosed is returned by a Manager after Close.
	ErrClosed = errors.New("browser: manager is closed")
)

// Mode selects how Chrome is run.
type Mode int

const (
	Headless Mode = iota // rod headless + stealth
	Headful              // rod headful on an Xvfb display
)

// ParseMode maps the configuration names "headless" and "headful".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "headless":
		return Headless, nil
	case "headful":
		return Headful, nil
	}
	return Headless, fmt.Errorf("browser: unknown mode %q", s)
}

func (m Mode) String() string {
	if m == Headful {
		return "headful"
	}
	return "headless"
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an already running Chrome, e.g. the
	// user's own browser started with --remote-debugging-port. Empty
	// launches a local Chrome.
	RemoteURL string

	// MemoryLimit in bytes of JS heap before Chrome is recycled. Default: 1GB.
	MemoryLimit int64

	// RecycleInterval is the maximum lifetime of a launched Chrome. Default: 4h.
	RecycleInterval time.Duration

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	Mode Mode

	// XvfbDisplay for headful mode. Default: ":99".
	XvfbDisplay string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30
	}
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RecycleHooks run around a recycle so tab owners can detach their
// monitors and reopen their pages on the new browser.
type RecycleHooks struct {
	Before func()
	After  func(b *rod.Browser)
}

// Manager owns the Chrome process.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	startAt time.Time
	closed  bool
	hooks   RecycleHooks
}

// NewManager creates a Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// SetRecycleHooks replaces the recycle hooks.
func (m *Manager) SetRecycleHooks(h RecycleHooks) {
	m.mu.Lock()
	m.hooks = h
	m.mu.Unlock()
}

// Start launches Chrome (or connects to RemoteURL) and starts the
// recycle monitor, which stops with ctx.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	m.startAt = time.Now()

	go m.monitorLoop(ctx)

	return b, nil
}

// Browser returns the current Rod browser handle, nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Recycle restarts Chrome, running the hooks around it.
func (m *Manager) Recycle(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	hooks := m.hooks
	m.mu.Unlock()

	// Hooks run unlocked: After reopens tabs through Browser().
	if hooks.Before != nil {
		hooks.Before()
	}

	m.mu.Lock()
	b, err := m.relaunchLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if hooks.After != nil {
		hooks.After(b)
	}
	return nil
}

// Close shuts down Chrome and Xvfb. A remote browser is disconnected, not
// killed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Mode == Headful && m.cfg.RemoteURL == "" {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New()
		if m.cfg.Mode == Headful {
			l = l.Headless(false).Env(append(os.Environ(), "DISPLAY="+m.cfg.XvfbDisplay)...)
		} else {
			l = l.Headless(true)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

func (m *Manager) relaunchLocked() (*rod.Browser, error) {
	log := m.cfg.Logger
	log.Info("browser: recycling", "uptime", time.Since(m.startAt))

	if err := m.cleanup(); err != nil {
		log.Warn("browser: cleanup during recycle", "error", err)
	}

	b, err := m.launch()
	if err != nil {
		return nil, fmt.Errorf("browser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()

	log.Info("browser: recycled")
	return b, nil
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		if m.lnch != nil {
			err = m.browser.Close()
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return err
}

// monitorLoop recycles a launched Chrome when it outlives RecycleInterval
// or its JS heap passes MemoryLimit. A remote browser belongs to the user
// and is never recycled.
func (m *Manager) monitorLoop(ctx context.Context) {
	if m.cfg.RemoteURL != "" {
		return
	}
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			closed, b, startAt := m.closed, m.browser, m.startAt
			m.mu.RUnlock()
			if closed {
				return
			}
			if b == nil {
				continue
			}

			reason := ""
			if time.Since(startAt) > m.cfg.RecycleInterval {
				reason = "interval"
			} else if used, err := heapUsage(b); err != nil {
				log.Debug("browser: heap check failed", "error", err)
			} else if used > m.cfg.MemoryLimit {
				reason = "memory"
				log.Info("browser: memory limit exceeded", "used", used, "limit", m.cfg.MemoryLimit)
			}
			if reason == "" {
				continue
			}
			if err := m.Recycle(ctx); err != nil {
				log.Error("browser: recycle failed", "reason", reason, "error", err)
			}
		}
	}
}

// heapUsage reads the JS heap of the first page as a proxy for the
// browser's footprint.
func heapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, errors.New("no pages for heap check")
	}
	res, err := pages[0].Eval(`() => performance.memory ? performance.memory.usedJSHeapSize : 0`)
	if err != nil {
		return 0, err
	}
	return int64(res.Value.Int()), nil
}
