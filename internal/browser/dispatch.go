package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/steamlink/deeplink"
)

// PageDispatcher hands a deep link to the browser's protocol handler from
// inside the page: a hidden anchor is clicked, then removed after Linger.
type PageDispatcher struct {
	Page   *rod.Page
	Linger time.Duration // default 300ms
}

// NewPageDispatcher creates a PageDispatcher for page.
func NewPageDispatcher(page *rod.Page) *PageDispatcher {
	return &PageDispatcher{Page: page, Linger: 300 * time.Millisecond}
}

// Dispatch rejects anything that is not a steam:// link before touching
// the page.
func (p *PageDispatcher) Dispatch(ctx context.Context, link string) error {
	if _, err := deeplink.ParseLink(link); err != nil {
		return err
	}
	_, err := p.Page.Context(ctx).Eval(`(link, ms) => {
		const a = document.createElement('a');
		a.href = link;
		a.style.display = 'none';
		(document.body || document.documentElement).appendChild(a);
		a.click();
		setTimeout(() => a.remove(), ms);
	}`, link, p.Linger.Milliseconds())
	if err != nil {
		return fmt.Errorf("browser: dispatch %s: %w", link, err)
	}
	return nil
}
