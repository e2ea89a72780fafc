// Package idgen generates the identifiers steamlink attaches to events and
// watched pages.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings. Event IDs
// sort by emission time.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Short returns a Generator of base-36 IDs of the given length, for page IDs
// that end up in logs and URLs.
func Short(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i := range buf {
			buf[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return string(buf)
	}
}

// Prefixed prepends a fixed prefix to every ID, e.g. "page_".
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is used by New.
var Default Generator = UUIDv7()

// PageID names a watched tab when the configuration leaves it blank.
var PageID Generator = Prefixed("page_", Short(8))

// New produces an ID using the Default generator.
func New() string {
	return Default()
}
