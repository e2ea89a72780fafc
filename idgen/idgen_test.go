package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShort_LengthAndAlphabet(t *testing.T) {
	for _, length := range []int{4, 8, 24} {
		id := Short(length)()
		require.Len(t, id, length)
		for _, c := range id {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z'), "unexpected %q in %q", c, id)
		}
	}
}

func TestUUIDv7_FormatAndUniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		require.Len(t, id, 36)
		require.Len(t, strings.Split(id, "-"), 5)
		_, dup := seen[id]
		require.False(t, dup, "duplicate at iteration %d", i)
		seen[id] = struct{}{}
	}
}

func TestPageID_Prefix(t *testing.T) {
	id := PageID()
	assert.True(t, strings.HasPrefix(id, "page_"), id)
	assert.Len(t, id, len("page_")+8)
}
