// Package sink defines output backends for steamlink events.
package sink

import (
	"context"

	"github.com/hazyhaar/steamlink/event"
)

// Sink delivers events to one backend (stdout, in-process callback).
type Sink interface {
	Send(ctx context.Context, e event.Event) error
	Close() error
}
