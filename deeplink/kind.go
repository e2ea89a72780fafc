// Package deeplink maps Steam web URLs to steam:// deep links.
//
// One rule table drives every call site. The in-page injector consumes it
// with ScopeInjectable, the toolbar-style trigger with ScopeDirect; the two
// scopes differ only in whether generic store/community fallbacks surface.
package deeplink

// Kind is the category assigned to a URL. It selects the link template.
type Kind int

const (
	NotApplicable        Kind = iota // not a Steam page
	App                              // store.steampowered.com/app/<id>
	Sub                              // store.steampowered.com/sub/<id>
	Bundle                           // store.steampowered.com/bundle/<id>
	WorkshopItem                     // steamcommunity.com/sharedfiles/filedetails/?id=<id>
	GenericStorePage                 // any other store page
	GenericCommunityPage             // any other community page
)

var kindNames = [...]string{
	NotApplicable:        "none",
	App:                  "app",
	Sub:                  "sub",
	Bundle:               "bundle",
	WorkshopItem:         "workshop",
	GenericStorePage:     "store",
	GenericCommunityPage: "community",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "none"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name so JSON events stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by String. Unknown names decode
// to NotApplicable.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// ParseKind is the inverse of String.
func ParseKind(s string) Kind {
	for i, n := range kindNames {
		if n == s {
			return Kind(i)
		}
	}
	return NotApplicable
}

// Injectable reports whether an in-page affordance is offered for this kind.
func (k Kind) Injectable() bool {
	switch k {
	case App, Sub, Bundle, WorkshopItem:
		return true
	}
	return false
}

// Actionable reports whether the direct trigger acts on this kind.
func (k Kind) Actionable() bool {
	return k != NotApplicable
}

// Scope filters which rule kinds a call site may surface.
type Scope int

const (
	// ScopeDirect surfaces every kind, generic fallbacks included.
	ScopeDirect Scope = iota
	// ScopeInjectable surfaces only the kinds that get an affordance.
	ScopeInjectable
)

func (s Scope) allows(k Kind) bool {
	if s == ScopeInjectable {
		return k.Injectable()
	}
	return k.Actionable()
}

func (s Scope) String() string {
	if s == ScopeInjectable {
		return "injectable"
	}
	return "direct"
}
