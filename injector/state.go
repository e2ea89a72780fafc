package injector

import "github.com/hazyhaar/steamlink/deeplink"

// State is what the monitor believes about its document. Exactly one
// Monitor owns a State; Start resets it.
type State struct {
	LastObservedURL string        `json:"last_observed_url"`
	Mounted         bool          `json:"mounted"`
	Link            string        `json:"link,omitempty"`
	Kind            deeplink.Kind `json:"kind"`
	Container       string        `json:"container,omitempty"` // selector that received the affordance, "" when fixed
}

// Transition is the outcome of one reevaluation.
type Transition string

const (
	TransitionNone      Transition = "none"
	TransitionMounted   Transition = "mounted"   // NoAffordance -> AffordanceMounted
	TransitionUnmounted Transition = "unmounted" // AffordanceMounted -> NoAffordance
	TransitionRemounted Transition = "remounted" // AffordanceMounted -> AffordanceMounted, new element
)
