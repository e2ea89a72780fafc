package injector

import (
	_ "embed"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/steamlink/deeplink"
)

// Element id and classes of the injected button. Stylesheet rules in
// affordance.css key off these names.
const (
	AffordanceID = "ois-open-in-steam-btn"
	ButtonClass  = "ois-steam-button"
	FixedClass   = "ois-fixed"
	PressedClass = "ois-clicked"

	DefaultLabel = "Open in Steam"
	DefaultTitle = "Open this page in the Steam desktop client"
)

// Stylesheet styles the button inline and in its fixed fallback position.
//
//go:embed affordance.css
var Stylesheet string

const steamIcon = `<svg class="ois-icon" viewBox="0 0 24 24" fill="currentColor" xmlns="http://www.w3.org/2000/svg"><path d="M11.979 0C5.678 0 .511 4.86.022 11.037l6.432 2.658a3.387 3.387 0 0 1 1.912-.59c.063 0 .125.004.188.006l2.861-4.142V8.91a4.525 4.525 0 0 1 4.524-4.524 4.527 4.527 0 0 1 4.524 4.527 4.525 4.525 0 0 1-4.524 4.525h-.105l-4.076 2.911c0 .052.004.105.004.159 0 1.875-1.515 3.396-3.39 3.396-1.635 0-3.016-1.173-3.331-2.727L.436 15.27C1.862 20.307 6.486 24 11.979 24c6.627 0 12-5.373 12-12S18.605 0 11.979 0zM7.54 18.21l-1.473-.61c.262.543.714.999 1.314 1.25 1.297.539 2.793-.076 3.332-1.375.263-.63.264-1.319.005-1.949s-.75-1.121-1.377-1.383c-.624-.26-1.29-.249-1.878-.03l1.523.63c.956.4 1.409 1.5 1.009 2.455-.397.957-1.497 1.41-2.454 1.012zm11.415-9.303a3.015 3.015 0 0 0-3.015-3.015 3.015 3.015 0 0 0-3.015 3.015 3.015 3.015 0 0 0 3.015 3.015 3.015 3.015 0 0 0 3.015-3.015zm-5.273-.005c0-1.252 1.013-2.266 2.265-2.266 1.249 0 2.266 1.014 2.266 2.266 0 1.251-1.017 2.265-2.266 2.265-1.253 0-2.265-1.014-2.265-2.265z"/></svg>`

var strict = bluemonday.StrictPolicy()

// Affordance is one mounted button. It is rebuilt on every mount and never
// mutated in place, so the link it carries always matches the location it
// was mounted for.
type Affordance struct {
	ID         string
	Link       string
	Kind       deeplink.Kind
	Identifier string
	Label      string
	Title      string
	Fixed      bool
}

func newAffordance(c deeplink.Classification, label, title string) Affordance {
	if label == "" {
		label = DefaultLabel
	}
	if title == "" {
		title = DefaultTitle
	}
	return Affordance{
		ID:         AffordanceID,
		Link:       c.Link,
		Kind:       c.Kind,
		Identifier: c.Identifier,
		Label:      plainText(label),
		Title:      plainText(title),
	}
}

// Classes returns the class attribute value.
func (a Affordance) Classes() string {
	if a.Fixed {
		return ButtonClass + " " + FixedClass
	}
	return ButtonClass
}

// HTML renders the button markup. Label and title come from configuration
// and are reduced to escaped plain text.
func (a Affordance) HTML() string {
	var b strings.Builder
	b.WriteString(`<button id="`)
	b.WriteString(html.EscapeString(a.ID))
	b.WriteString(`" type="button" class="`)
	b.WriteString(a.Classes())
	b.WriteString(`" title="`)
	b.WriteString(html.EscapeString(a.Title))
	b.WriteString(`" aria-label="`)
	b.WriteString(html.EscapeString(a.Label))
	b.WriteString(`" data-steam-url="`)
	b.WriteString(html.EscapeString(a.Link))
	b.WriteString(`" data-page-type="`)
	b.WriteString(a.Kind.String())
	b.WriteString(`">`)
	b.WriteString(steamIcon)
	b.WriteString(`<span class="ois-text">`)
	b.WriteString(html.EscapeString(a.Label))
	b.WriteString(`</span></button>`)
	return b.String()
}

// plainText strips any markup from s and returns unescaped text.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
