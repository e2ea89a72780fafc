package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/steamlink/injector"
)

//go:embed bridge.js
var bridgeJS string

const (
	bindingName = "__steamlink_bridge"
	guardName   = "__steamlinkBridgeInstalled"
	styleID     = "ois-open-in-steam-style"

	// coalesceMs batches bursts of DOM mutations into one signal.
	coalesceMs = 50
)

var (
	// ErrNoContainer is returned when the container vanished between the
	// probe and the insert.
	ErrNoContainer = injector.ErrNoContainer
	// ErrNoBody is returned when the page has no body to append to.
	ErrNoBody = errors.New("browser: document has no body")
)

type bridgeOptions struct {
	Binding    string `json:"binding"`
	Guard      string `json:"guard"`
	ID         string `json:"id"`
	StyleID    string `json:"styleId"`
	CSS        string `json:"css"`
	CoalesceMs int    `json:"coalesceMs"`
}

type bridgeMessage struct {
	Op   string `json:"op"`
	Href string `json:"href"`
	Link string `json:"link"`
}

// Document is an injector.Document backed by a live tab over CDP. Host
// signals arrive through a Runtime binding called by the injected bridge
// script, which is reinstalled on every new document in the tab.
type Document struct {
	page    *rod.Page
	logger  *slog.Logger
	signals chan injector.Signal

	cancel       context.CancelFunc
	done         chan struct{}
	removeScript func() error
	closeOnce    sync.Once
}

var _ injector.Document = (*Document)(nil)

// Attach installs the bridge into page and starts relaying its signals.
// The relay stops when ctx ends or Close is called.
func Attach(ctx context.Context, page *rod.Page, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &Document{
		page:    page,
		logger:  logger,
		signals: make(chan injector.Signal, 64),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Subscribe before the bridge can call the binding.
	wait := page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		d.relay(ctx, e.Payload)
	})
	go func() {
		defer close(d.done)
		defer close(d.signals)
		wait()
	}()

	opts := bridgeOptions{
		Binding:    bindingName,
		Guard:      guardName,
		ID:         injector.AffordanceID,
		StyleID:    styleID,
		CSS:        injector.Stylesheet,
		CoalesceMs: coalesceMs,
	}
	script, err := bridgeScript(opts)
	if err != nil {
		d.Close()
		return nil, err
	}

	remove, err := page.EvalOnNewDocument(script)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("browser: install bridge: %w", err)
	}
	d.removeScript = remove

	if _, err := page.Context(ctx).Eval(bridgeJS, opts); err != nil {
		d.Close()
		return nil, fmt.Errorf("browser: run bridge: %w", err)
	}
	return d, nil
}

// bridgeScript renders the bridge as a self-invoking script for
// Page.addScriptToEvaluateOnNewDocument.
func bridgeScript(opts bridgeOptions) (string, error) {
	raw, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("browser: encode bridge options: %w", err)
	}
	return fmt.Sprintf("(%s)(%s);", strings.TrimSpace(bridgeJS), raw), nil
}

// relay turns one binding payload into a Signal. Mutation bursts are
// dropped when the buffer is full; the monitor's poll covers them.
func (d *Document) relay(ctx context.Context, payload string) {
	var msg bridgeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		d.logger.Warn("browser: parse bridge payload", "error", err)
		return
	}

	s := injector.Signal{Kind: injector.SignalKind(msg.Op), Href: msg.Href, Link: msg.Link}
	switch s.Kind {
	case injector.SignalMutation:
		select {
		case d.signals <- s:
		default:
			d.logger.Debug("browser: mutation signal dropped")
		}
	case injector.SignalReady, injector.SignalHistory, injector.SignalActivate:
		select {
		case d.signals <- s:
		case <-ctx.Done():
		}
	default:
		d.logger.Debug("browser: unknown bridge op", "op", msg.Op)
	}
}

// Close stops the relay and uninstalls the bridge from future documents.
// The Signals channel is closed once the relay has exited.
func (d *Document) Close() {
	d.closeOnce.Do(func() {
		d.cancel()
		<-d.done
		if d.removeScript != nil {
			if err := d.removeScript(); err != nil {
				d.logger.Debug("browser: remove bridge script", "error", err)
			}
		}
	})
}

func (d *Document) Signals() <-chan injector.Signal { return d.signals }

func (d *Document) eval(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	return d.page.Context(ctx).Eval(js, args...)
}

func (d *Document) Location(ctx context.Context) (string, error) {
	res, err := d.eval(ctx, `() => location.href`)
	if err != nil {
		return "", fmt.Errorf("browser: location: %w", err)
	}
	return res.Value.Str(), nil
}

func (d *Document) Exists(ctx context.Context, selector string) (bool, error) {
	res, err := d.eval(ctx, `(sel) => document.querySelector(sel) !== null`, selector)
	if err != nil {
		return false, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

func (d *Document) InsertFirst(ctx context.Context, selector string, a injector.Affordance) error {
	res, err := d.eval(ctx, `(sel, markup) => {
		const container = document.querySelector(sel);
		if (!container) return false;
		const tpl = document.createElement('template');
		tpl.innerHTML = markup;
		container.insertBefore(tpl.content.firstElementChild, container.firstChild);
		return true;
	}`, selector, a.HTML())
	if err != nil {
		return fmt.Errorf("browser: insert: %w", err)
	}
	if !res.Value.Bool() {
		return ErrNoContainer
	}
	return nil
}

func (d *Document) AppendFixed(ctx context.Context, a injector.Affordance) error {
	res, err := d.eval(ctx, `(markup) => {
		if (!document.body) return false;
		const tpl = document.createElement('template');
		tpl.innerHTML = markup;
		document.body.appendChild(tpl.content.firstElementChild);
		return true;
	}`, a.HTML())
	if err != nil {
		return fmt.Errorf("browser: append: %w", err)
	}
	if !res.Value.Bool() {
		return ErrNoBody
	}
	return nil
}

// Remove deletes every element carrying id, so stray duplicates left by a
// page script do not survive a remount.
func (d *Document) Remove(ctx context.Context, id string) (bool, error) {
	res, err := d.eval(ctx, `(id) => {
		let n = 0, el;
		while ((el = document.getElementById(id))) { el.remove(); n++; }
		return n;
	}`, id)
	if err != nil {
		return false, fmt.Errorf("browser: remove: %w", err)
	}
	return res.Value.Int() > 0, nil
}

func (d *Document) SetClass(ctx context.Context, id, class string, on bool) error {
	_, err := d.eval(ctx, `(id, cls, on) => {
		const el = document.getElementById(id);
		if (el) el.classList.toggle(cls, on);
	}`, id, class, on)
	if err != nil {
		return fmt.Errorf("browser: set class: %w", err)
	}
	return nil
}
