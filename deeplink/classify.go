package deeplink

import (
	"net/url"
	"strings"
)

// Classification is the result of classifying one URL. It is a value:
// computed fresh per call and never shared.
type Classification struct {
	Kind       Kind   `json:"kind"`
	Identifier string `json:"identifier,omitempty"`
	Link       string `json:"link,omitempty"`
}

// Injectable reports whether the page gets an in-page affordance.
func (c Classification) Injectable() bool { return c.Kind.Injectable() }

// Actionable reports whether the direct trigger should hand off.
func (c Classification) Actionable() bool { return c.Kind.Actionable() && c.Link != "" }

// Classify evaluates raw against the table, returning the first rule match
// allowed by scope. Malformed URLs and unknown hosts yield NotApplicable.
func (t Table) Classify(raw string, scope Scope) Classification {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Classification{}
	}
	host := strings.ToLower(u.Hostname())

	for _, r := range t {
		if r.Host != host || !scope.allows(r.Kind) {
			continue
		}
		id, ok := r.Match(u)
		if !ok {
			continue
		}
		return Classification{Kind: r.Kind, Identifier: id, Link: r.Link(raw, id)}
	}
	return Classification{}
}

// Classify runs the full rule set, generic fallbacks included. This is what
// the toolbar-style trigger uses.
func Classify(raw string) Classification {
	return Default.Classify(raw, ScopeDirect)
}

// ClassifyInjectable runs the rule set restricted to kinds that get an
// in-page affordance.
func ClassifyInjectable(raw string) Classification {
	return Default.Classify(raw, ScopeInjectable)
}
