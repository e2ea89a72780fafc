package deeplink

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLink is returned by ParseLink for anything that is not one of
// the three steam:// forms this package produces.
var ErrInvalidLink = errors.New("deeplink: invalid link")

// Form is the command part of a steam:// link.
type Form string

const (
	FormStore   Form = "store"   // steam://store/<appid>
	FormOpenURL Form = "openurl" // steam://openurl/<url>
	FormURL     Form = "url"     // steam://url/CommunityFilePage/<id>
)

// Target is a parsed deep link.
type Target struct {
	Form Form
	Arg  string
}

func (t Target) String() string {
	return Scheme + "://" + string(t.Form) + "/" + t.Arg
}

// ParseLink validates a deep link before it is handed to a dispatcher.
func ParseLink(link string) (Target, error) {
	rest, ok := strings.CutPrefix(link, Scheme+"://")
	if !ok {
		return Target{}, fmt.Errorf("%w: scheme in %q", ErrInvalidLink, link)
	}
	form, arg, ok := strings.Cut(rest, "/")
	if !ok || arg == "" {
		return Target{}, fmt.Errorf("%w: missing argument in %q", ErrInvalidLink, link)
	}

	switch Form(form) {
	case FormStore:
		if !isDigits(strings.TrimSuffix(arg, "/")) {
			return Target{}, fmt.Errorf("%w: store id %q", ErrInvalidLink, arg)
		}
	case FormOpenURL:
		if !strings.HasPrefix(arg, "https://") && !strings.HasPrefix(arg, "http://") {
			return Target{}, fmt.Errorf("%w: openurl target %q", ErrInvalidLink, arg)
		}
	case FormURL:
		id, ok := strings.CutPrefix(arg, "CommunityFilePage/")
		if !ok || !isDigits(id) {
			return Target{}, fmt.Errorf("%w: url target %q", ErrInvalidLink, arg)
		}
	default:
		return Target{}, fmt.Errorf("%w: form %q", ErrInvalidLink, form)
	}
	return Target{Form: Form(form), Arg: arg}, nil
}
