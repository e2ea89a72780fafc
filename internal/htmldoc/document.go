// Package htmldoc is an in-memory injector.Document over a parsed HTML
// tree. It backs the inspect command (dry-run injection into a saved page)
// and the monitor tests; the browser-backed Document lives in
// internal/browser.
package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/steamlink/injector"
)

// ErrNoBody is returned when the document has no <body> to append to.
var ErrNoBody = errors.New("htmldoc: document has no body")

// Document is safe for concurrent use.
type Document struct {
	mu      sync.Mutex
	root    *html.Node
	href    string
	signals chan injector.Signal
}

// Parse reads an HTML document located at href.
func Parse(r io.Reader, href string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return &Document{
		root:    root,
		href:    href,
		signals: make(chan injector.Signal, 64),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(s, href string) (*Document, error) {
	return Parse(strings.NewReader(s), href)
}

// Navigate changes the location without touching the tree, like a
// history.pushState that no mutation accompanies. Only the poll notices.
func (d *Document) Navigate(href string) {
	d.mu.Lock()
	d.href = href
	d.mu.Unlock()
}

// Emit pushes a host signal to the monitor. It drops the signal when the
// buffer is full; the poll recovers any missed location change.
func (d *Document) Emit(s injector.Signal) bool {
	select {
	case d.signals <- s:
		return true
	default:
		return false
	}
}

// Count returns how many elements match selector.
func (d *Document) Count(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(querySelectorAll(d.root, selector))
}

// Attr returns an attribute of the first element matching selector.
func (d *Document) Attr(selector, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := querySelector(d.root, selector)
	if n == nil {
		return "", false
	}
	return lookupAttr(n, key)
}

// FirstChildID returns the id of the first element child of the first
// element matching selector.
func (d *Document) FirstChildID(selector string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := querySelector(d.root, selector)
	if n == nil {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return getAttr(c, "id")
		}
	}
	return ""
}

// Render serialises the current tree.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the tree, for tests and logs.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// injector.Document implementation.

func (d *Document) Location(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.href, nil
}

func (d *Document) Exists(_ context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return querySelector(d.root, selector) != nil, nil
}

func (d *Document) InsertFirst(_ context.Context, selector string, a injector.Affordance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	container := querySelector(d.root, selector)
	if container == nil {
		return fmt.Errorf("htmldoc: %q: %w", selector, injector.ErrNoContainer)
	}
	nodes, err := html.ParseFragment(strings.NewReader(a.HTML()), container)
	if err != nil {
		return fmt.Errorf("htmldoc: parse affordance: %w", err)
	}
	ref := container.FirstChild
	for _, n := range nodes {
		container.InsertBefore(n, ref)
	}
	return nil
}

func (d *Document) AppendFixed(_ context.Context, a injector.Affordance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := findBody(d.root)
	if body == nil {
		return ErrNoBody
	}
	nodes, err := html.ParseFragment(strings.NewReader(a.HTML()), body)
	if err != nil {
		return fmt.Errorf("htmldoc: parse affordance: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

func (d *Document) Remove(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := false
	for _, n := range querySelectorAll(d.root, "#"+id) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
			removed = true
		}
	}
	return removed, nil
}

func (d *Document) SetClass(_ context.Context, id, class string, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := querySelector(d.root, "#"+id)
	if n == nil {
		return nil
	}
	var kept []string
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if on {
		kept = append(kept, class)
	}
	setAttr(n, "class", strings.Join(kept, " "))
	return nil
}

func (d *Document) Signals() <-chan injector.Signal {
	return d.signals
}

// RemoveMatching deletes every element matching selector, the way a page
// re-render can wipe injected nodes.
func (d *Document) RemoveMatching(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := querySelectorAll(d.root, selector)
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(nodes)
}

func findBody(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

var _ injector.Document = (*Document)(nil)
