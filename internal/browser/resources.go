package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockSet holds configured resource type names, lower-cased.
type blockSet map[string]bool

func newBlockSet(types []string) blockSet {
	s := make(blockSet, len(types))
	for _, t := range types {
		s[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return s
}

// blocks maps a CDP resource type to the plural configuration names.
// Documents and scripts are never blocked: the affordance needs both.
func (s blockSet) blocks(resType proto.NetworkResourceType) bool {
	lower := strings.ToLower(string(resType))
	switch lower {
	case "document", "script":
		return false
	case "image":
		return s["images"]
	case "font":
		return s["fonts"]
	case "media":
		return s["media"]
	case "stylesheet":
		return s["stylesheets"]
	}
	return s[lower]
}

// blockResources hijacks page requests and fails the blocked types. The
// returned router stops with the page.
func blockResources(page *rod.Page, types []string) *rod.HijackRouter {
	set := newBlockSet(types)
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if set.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
