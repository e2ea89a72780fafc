package injector

import (
	"context"
	"errors"
	"fmt"
)

// DefaultSelectors are the candidate containers, store pages first, then
// community/workshop pages. The list is a priority order: the first
// selector present receives the affordance and the rest are ignored.
var DefaultSelectors = []string{
	".apphub_OtherSiteInfo",
	".apphub_HeaderTop",
	"#tabControls",
	".game_title_area .block_banner",
	".game_header_image_ctn",
	".page_title_area",
	".page_header_ctn",
	".workshopItemDetailsHeader",
	".workshopItemTitle",
	".breadcrumbs",
}

// mount inserts a as the first child of the first present container, or
// appends it to the body in fixed position. It returns the selector used,
// "" for the fixed fallback, and the affordance as mounted.
func mount(ctx context.Context, doc Document, selectors []string, a Affordance) (string, Affordance, error) {
	for _, sel := range selectors {
		ok, err := doc.Exists(ctx, sel)
		if err != nil {
			return "", a, fmt.Errorf("injector: probe %q: %w", sel, err)
		}
		if !ok {
			continue
		}
		a.Fixed = false
		err = doc.InsertFirst(ctx, sel, a)
		if errors.Is(err, ErrNoContainer) {
			// Re-rendered away since the probe.
			continue
		}
		if err != nil {
			return "", a, fmt.Errorf("injector: insert into %q: %w", sel, err)
		}
		return sel, a, nil
	}

	a.Fixed = true
	if err := doc.AppendFixed(ctx, a); err != nil {
		return "", a, fmt.Errorf("injector: append fixed: %w", err)
	}
	return "", a, nil
}
