// Package injector keeps an "Open in Steam" affordance consistent with the
// current location of a document across single-page-app navigations.
//
// The Monitor is the only writer of its State and the only caller of the
// DOM-mutating Document methods; every signal is handled on one goroutine,
// so an unmount followed by a mount is never observed half done.
package injector

import (
	"context"
	"errors"

	"github.com/hazyhaar/steamlink/event"
)

// ErrNoContainer is returned by Document.InsertFirst when no element
// matches the selector any more. mount moves on to the next candidate.
var ErrNoContainer = errors.New("injector: container not found")

// SignalKind says what the host environment observed.
type SignalKind string

const (
	SignalReady    SignalKind = "ready"    // document finished loading
	SignalMutation SignalKind = "mutation" // body subtree changed
	SignalHistory  SignalKind = "history"  // back/forward navigation
	SignalActivate SignalKind = "activate" // affordance clicked
	SignalPoll     SignalKind = "poll"     // periodic safety-net check (internal)
)

// Signal is pushed by a Document. Href is the location at the time of the
// signal when the host knows it; empty means "ask the document".
type Signal struct {
	Kind SignalKind
	Href string
	Link string // for SignalActivate, the link the element carried
}

// Document abstracts the page the affordance lives in. Selectors are CSS
// selectors; ids are element ids without the leading '#'.
type Document interface {
	Location(ctx context.Context) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	InsertFirst(ctx context.Context, selector string, a Affordance) error
	AppendFixed(ctx context.Context, a Affordance) error
	Remove(ctx context.Context, id string) (bool, error)
	SetClass(ctx context.Context, id, class string, on bool) error
	Signals() <-chan Signal
}

// EventSink receives monitor events. Errors are logged by the monitor.
type EventSink interface {
	Send(ctx context.Context, e event.Event) error
}
