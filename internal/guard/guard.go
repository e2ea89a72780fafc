// Package guard validates the few untrusted inputs steamlink takes from
// configuration and the command line before they reach a browser or an
// HTTP route.
package guard

import (
	"errors"
	"fmt"
	"io"
	"net/url"
)

var (
	// ErrUnsafeScheme is returned for page URLs that are not http or https.
	ErrUnsafeScheme = errors.New("guard: only http and https pages can be watched")
	// ErrTooLarge is returned by ReadAll past its limit.
	ErrTooLarge = errors.New("guard: input too large")
)

// MaxIdentifierLen bounds page IDs.
const MaxIdentifierLen = 64

// Identifier accepts page IDs usable as a URL path segment and a log
// value: ASCII letters, digits, underscore, hyphen and dot.
func Identifier(s string) error {
	if s == "" {
		return errors.New("guard: identifier must not be empty")
	}
	if len(s) > MaxIdentifierLen {
		return fmt.Errorf("guard: identifier too long (max %d)", MaxIdentifierLen)
	}
	for _, r := range s {
		if !isIdentChar(r) {
			return fmt.Errorf("guard: invalid character %q in identifier", r)
		}
	}
	return nil
}

// PageURL accepts absolute http and https URLs, the only ones a watched
// tab may be opened on.
func PageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("guard: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrUnsafeScheme
	}
	if u.Host == "" {
		return errors.New("guard: url has no host")
	}
	return nil
}

// ReadAll reads at most maxBytes from r.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

func isIdentChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}
