// Package event defines what steamlink reports about its work: affordances
// mounted and removed, hand-offs dispatched, trigger invocations. Sinks
// receive these values; consumers import this package to decode them.
package event

import (
	"encoding/json"
	"time"

	"github.com/hazyhaar/steamlink/deeplink"
	"github.com/hazyhaar/steamlink/idgen"
)

// Type is the kind of event.
type Type string

const (
	Mounted   Type = "mounted"   // affordance inserted into a document
	Unmounted Type = "unmounted" // affordance removed, page no longer injectable
	Handoff   Type = "handoff"   // affordance activated, deep link dispatched
	Trigger   Type = "trigger"   // direct trigger invoked on a URL
)

// Event is one observation. Timestamp is epoch milliseconds.
type Event struct {
	ID         string        `json:"id"`
	Type       Type          `json:"type"`
	PageID     string        `json:"page_id,omitempty"`
	URL        string        `json:"url,omitempty"`
	Kind       deeplink.Kind `json:"kind"`
	Identifier string        `json:"identifier,omitempty"`
	Link       string        `json:"link,omitempty"`
	Container  string        `json:"container,omitempty"` // selector that received the affordance
	Fixed      bool          `json:"fixed,omitempty"`
	Source     string        `json:"source,omitempty"` // signal or surface that caused it
	Error      string        `json:"error,omitempty"`
	Timestamp  int64         `json:"timestamp"`
}

// New stamps an event of the given type with an ID and the current time.
func New(typ Type) Event {
	return Event{
		ID:        idgen.New(),
		Type:      typ,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithClassification copies kind, identifier and link from c.
func (e Event) WithClassification(c deeplink.Classification) Event {
	e.Kind = c.Kind
	e.Identifier = c.Identifier
	e.Link = c.Link
	return e
}

// Marshal serialises an Event to JSON.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserialises an Event from JSON.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
