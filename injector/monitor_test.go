package injector_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hazyhaar/steamlink/deeplink"
	"github.com/hazyhaar/steamlink/event"
	"github.com/hazyhaar/steamlink/injector"
	"github.com/hazyhaar/steamlink/internal/htmldoc"
)

const (
	appURL      = "https://store.steampowered.com/app/730/Counter-Strike_2/"
	otherAppURL = "https://store.steampowered.com/app/570/Dota_2/"
	workshopURL = "https://steamcommunity.com/sharedfiles/filedetails/?id=3664628116"
	searchURL   = "https://store.steampowered.com/search/?term=portal"
	foreignURL  = "https://example.com/"

	affSel = "#" + injector.AffordanceID
)

const storePage = `<html><body>
<div class="page_title_area"><h2>Title</h2></div>
<div class="apphub_HeaderTop"><div class="apphub_AppName">Counter-Strike 2</div></div>
</body></html>`

const barePage = `<html><body><main>nothing to hook</main></body></html>`

type recorder struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (r *recorder) Dispatch(_ context.Context, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, link)
	return r.err
}

func (r *recorder) Links() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.links...)
}

type events struct {
	mu  sync.Mutex
	got []event.Event
}

func (e *events) Send(_ context.Context, ev event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
	return nil
}

func (e *events) Types() []event.Type {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []event.Type
	for _, ev := range e.got {
		out = append(out, ev.Type)
	}
	return out
}

func newMonitor(t *testing.T, html, href string) (*injector.Monitor, *htmldoc.Document, *recorder, *events) {
	t.Helper()
	doc, err := htmldoc.ParseString(html, href)
	require.NoError(t, err)
	rec := &recorder{}
	sink := &events{}
	m := injector.New(injector.Config{
		Document:      doc,
		Dispatcher:    rec,
		Sink:          sink,
		PageID:        "page-1",
		PollInterval:  10 * time.Millisecond,
		PressDuration: 20 * time.Millisecond,
	})
	return m, doc, rec, sink
}

func TestReevaluate_MountsIntoFirstPresentContainer(t *testing.T) {
	ctx := context.Background()
	m, doc, _, sink := newMonitor(t, storePage, appURL)

	tr, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)

	// .apphub_HeaderTop precedes .page_title_area in the priority list.
	assert.Equal(t, injector.AffordanceID, doc.FirstChildID(".apphub_HeaderTop"))
	assert.NotEqual(t, injector.AffordanceID, doc.FirstChildID(".page_title_area"))
	assert.Equal(t, 1, doc.Count(affSel))

	link, _ := doc.Attr(affSel, "data-steam-url")
	assert.Equal(t, "steam://store/730", link)
	kind, _ := doc.Attr(affSel, "data-page-type")
	assert.Equal(t, "app", kind)

	st := m.Snapshot()
	assert.True(t, st.Mounted)
	assert.Equal(t, appURL, st.LastObservedURL)
	assert.Equal(t, ".apphub_HeaderTop", st.Container)
	assert.Equal(t, deeplink.App, st.Kind)

	assert.Equal(t, []event.Type{event.Mounted}, sink.Types())
}

func TestReevaluate_FixedFallback(t *testing.T) {
	ctx := context.Background()
	m, doc, _, _ := newMonitor(t, barePage, workshopURL)

	tr, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)

	class, ok := doc.Attr(affSel, "class")
	require.True(t, ok)
	assert.Contains(t, strings.Fields(class), injector.FixedClass)
	assert.Equal(t, "", m.Snapshot().Container)

	link, _ := doc.Attr(affSel, "data-steam-url")
	assert.Equal(t, "steam://url/CommunityFilePage/3664628116", link)
}

func TestReevaluate_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, doc, _, sink := newMonitor(t, storePage, appURL)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	tr, err := m.Reevaluate(ctx, "", injector.SignalHistory)
	require.NoError(t, err)

	assert.Equal(t, injector.TransitionNone, tr)
	assert.Equal(t, 1, doc.Count(affSel))
	assert.Equal(t, []event.Type{event.Mounted}, sink.Types())
}

func TestReevaluate_NotApplicableNeverMounts(t *testing.T) {
	ctx := context.Background()
	for _, href := range []string{foreignURL, searchURL, "https://steamcommunity.com/id/gaben"} {
		m, doc, _, sink := newMonitor(t, storePage, href)
		tr, err := m.Reevaluate(ctx, "", injector.SignalReady)
		require.NoError(t, err)
		assert.Equal(t, injector.TransitionNone, tr, href)
		assert.Equal(t, 0, doc.Count(affSel), href)
		assert.Empty(t, sink.Types(), href)
	}
}

func TestReevaluate_NavigationRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, doc, _, sink := newMonitor(t, storePage, appURL)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)

	doc.Navigate(foreignURL)
	tr, err := m.Reevaluate(ctx, "", injector.SignalMutation)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionUnmounted, tr)
	assert.Equal(t, 0, doc.Count(affSel))
	assert.False(t, m.Snapshot().Mounted)

	doc.Navigate(otherAppURL)
	tr, err = m.Reevaluate(ctx, "", injector.SignalHistory)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)
	link, _ := doc.Attr(affSel, "data-steam-url")
	assert.Equal(t, "steam://store/570", link)

	assert.Equal(t, []event.Type{event.Mounted, event.Unmounted, event.Mounted}, sink.Types())
}

func TestReevaluate_SwapReplacesElement(t *testing.T) {
	ctx := context.Background()
	m, doc, _, _ := newMonitor(t, storePage, appURL)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)

	doc.Navigate(otherAppURL)
	tr, err := m.Reevaluate(ctx, "", injector.SignalPoll)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionRemounted, tr)
	assert.Equal(t, 1, doc.Count(affSel))

	link, _ := doc.Attr(affSel, "data-steam-url")
	assert.Equal(t, "steam://store/570", link)
	assert.Equal(t, "steam://store/570", m.Snapshot().Link)
}

func TestReevaluate_RepairsWipedAffordance(t *testing.T) {
	ctx := context.Background()
	m, doc, _, _ := newMonitor(t, storePage, appURL)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	require.Equal(t, 1, doc.RemoveMatching(affSel))

	tr, err := m.Reevaluate(ctx, "", injector.SignalMutation)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionRemounted, tr)
	assert.Equal(t, 1, doc.Count(affSel))
}

func TestReevaluate_RemovesStrayAffordance(t *testing.T) {
	ctx := context.Background()
	stray := `<html><body><button id="` + injector.AffordanceID + `">old</button></body></html>`
	m, doc, _, _ := newMonitor(t, stray, foreignURL)

	tr, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionUnmounted, tr)
	assert.Equal(t, 0, doc.Count(affSel))
}

// failingDoc fails selected DOM operations a fixed number of times.
type failingDoc struct {
	*htmldoc.Document

	mu          sync.Mutex
	insertErrs  []error
	removeFails int
	appendFails int
}

var errCDP = errors.New("cdp: context lost")

func (f *failingDoc) InsertFirst(ctx context.Context, selector string, a injector.Affordance) error {
	f.mu.Lock()
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return f.Document.InsertFirst(ctx, selector, a)
}

func (f *failingDoc) AppendFixed(ctx context.Context, a injector.Affordance) error {
	f.mu.Lock()
	if f.appendFails > 0 {
		f.appendFails--
		f.mu.Unlock()
		return errCDP
	}
	f.mu.Unlock()
	return f.Document.AppendFixed(ctx, a)
}

func (f *failingDoc) Remove(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	if f.removeFails > 0 {
		f.removeFails--
		f.mu.Unlock()
		return false, errCDP
	}
	f.mu.Unlock()
	return f.Document.Remove(ctx, id)
}

func newFailingMonitor(t *testing.T, html, href string, fd *failingDoc) *injector.Monitor {
	t.Helper()
	doc, err := htmldoc.ParseString(html, href)
	require.NoError(t, err)
	fd.Document = doc
	return injector.New(injector.Config{
		Document:      fd,
		Dispatcher:    &recorder{},
		PageID:        "page-1",
		PollInterval:  10 * time.Millisecond,
		PressDuration: 20 * time.Millisecond,
	})
}

func TestReevaluate_VanishedContainerFallsThrough(t *testing.T) {
	ctx := context.Background()
	fd := &failingDoc{insertErrs: []error{injector.ErrNoContainer}}
	m := newFailingMonitor(t, storePage, appURL, fd)

	tr, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)
	assert.Equal(t, injector.AffordanceID, fd.FirstChildID(".page_title_area"))
	assert.Equal(t, ".page_title_area", m.Snapshot().Container)
	assert.Equal(t, 1, fd.Count(affSel))
}

func TestReevaluate_MountFailureRetriedOnNextSignal(t *testing.T) {
	ctx := context.Background()
	fd := &failingDoc{insertErrs: []error{errCDP}}
	m := newFailingMonitor(t, storePage, appURL, fd)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.ErrorIs(t, err, errCDP)
	assert.Equal(t, injector.State{}, m.Snapshot())
	assert.Equal(t, 0, fd.Count(affSel))

	tr, err := m.Reevaluate(ctx, "", injector.SignalPoll)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)
	assert.Equal(t, 1, fd.Count(affSel))
	assert.True(t, m.Snapshot().Mounted)
}

func TestReevaluate_FixedAppendFailureRetried(t *testing.T) {
	ctx := context.Background()
	fd := &failingDoc{appendFails: 1}
	m := newFailingMonitor(t, barePage, workshopURL, fd)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.ErrorIs(t, err, errCDP)
	assert.False(t, m.Snapshot().Mounted)

	tr, err := m.Reevaluate(ctx, "", injector.SignalPoll)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionMounted, tr)
	assert.Equal(t, 1, fd.Count(affSel))
}

func TestMonitor_LoopRecoversFromTransientMountFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	fd := &failingDoc{insertErrs: []error{errCDP}}
	m := newFailingMonitor(t, storePage, appURL, fd)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	fd.Emit(injector.Signal{Kind: injector.SignalReady})
	fd.Emit(injector.Signal{Kind: injector.SignalMutation, Href: appURL})
	require.Eventually(t, func() bool { return fd.Count(affSel) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return m.Snapshot().Mounted }, time.Second, 5*time.Millisecond)
	assert.Equal(t, appURL, m.Snapshot().LastObservedURL)
}

func TestReevaluate_RemoveFailureKeepsStaleAffordanceTracked(t *testing.T) {
	ctx := context.Background()
	fd := &failingDoc{}
	m := newFailingMonitor(t, storePage, appURL, fd)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)

	fd.mu.Lock()
	fd.removeFails = 1
	fd.mu.Unlock()
	fd.Navigate(foreignURL)

	_, err = m.Reevaluate(ctx, "", injector.SignalHistory)
	require.ErrorIs(t, err, errCDP)
	st := m.Snapshot()
	assert.True(t, st.Mounted)
	assert.Equal(t, "", st.LastObservedURL)
	assert.Equal(t, 1, fd.Count(affSel))

	tr, err := m.Reevaluate(ctx, "", injector.SignalPoll)
	require.NoError(t, err)
	assert.Equal(t, injector.TransitionUnmounted, tr)
	assert.Equal(t, 0, fd.Count(affSel))
	assert.False(t, m.Snapshot().Mounted)
}

func TestReevaluate_BundleKeepsQuery(t *testing.T) {
	ctx := context.Background()
	href := "https://store.steampowered.com/bundle/232/Valve_Complete_Pack/?l=german"
	m, doc, _, _ := newMonitor(t, storePage, href)

	_, err := m.Reevaluate(ctx, "", injector.SignalReady)
	require.NoError(t, err)
	link, _ := doc.Attr(affSel, "data-steam-url")
	assert.Equal(t, "steam://openurl/"+href, link)
}

func TestMonitor_LoopFollowsSignalsAndPoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, doc, _, _ := newMonitor(t, storePage, appURL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	doc.Emit(injector.Signal{Kind: injector.SignalReady})
	require.Eventually(t, func() bool { return doc.Count(affSel) == 1 }, time.Second, 5*time.Millisecond)

	// A pushState with no mutation: only the poll notices.
	doc.Navigate(foreignURL)
	require.Eventually(t, func() bool { return doc.Count(affSel) == 0 }, time.Second, 5*time.Millisecond)

	// Back navigation.
	doc.Navigate(workshopURL)
	doc.Emit(injector.Signal{Kind: injector.SignalHistory})
	require.Eventually(t, func() bool {
		link, _ := doc.Attr(affSel, "data-steam-url")
		return link == "steam://url/CommunityFilePage/3664628116"
	}, time.Second, 5*time.Millisecond)

	// Mutation with an unchanged URL does not duplicate the affordance.
	for i := 0; i < 5; i++ {
		doc.Emit(injector.Signal{Kind: injector.SignalMutation, Href: workshopURL})
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, doc.Count(affSel))
}

func TestMonitor_ActivationDispatchesAndClearsPressedState(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, doc, rec, sink := newMonitor(t, storePage, appURL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	doc.Emit(injector.Signal{Kind: injector.SignalReady})
	require.Eventually(t, func() bool { return m.Snapshot().Mounted }, time.Second, 5*time.Millisecond)

	doc.Emit(injector.Signal{Kind: injector.SignalActivate, Link: "steam://store/1"})
	require.Eventually(t, func() bool { return len(rec.Links()) == 1 }, time.Second, 5*time.Millisecond)

	// The mounted state's link wins over whatever the element reported.
	assert.Equal(t, []string{"steam://store/730"}, rec.Links())

	require.Eventually(t, func() bool {
		class, _ := doc.Attr(affSel, "class")
		return !strings.Contains(class, injector.PressedClass)
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, sink.Types(), event.Handoff)
}

func TestMonitor_DispatchFailureStillClearsPressedState(t *testing.T) {
	m, doc, rec, sink := newMonitor(t, storePage, appURL)
	rec.err = errors.New("no handler for steam://")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	doc.Emit(injector.Signal{Kind: injector.SignalReady})
	require.Eventually(t, func() bool { return m.Snapshot().Mounted }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Activate(ctx))
	require.Eventually(t, func() bool { return len(rec.Links()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		class, _ := doc.Attr(affSel, "class")
		return class == injector.ButtonClass
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var handoff *event.Event
	for i := range sink.got {
		if sink.got[i].Type == event.Handoff {
			handoff = &sink.got[i]
		}
	}
	require.NotNil(t, handoff)
	assert.Equal(t, "no handler for steam://", handoff.Error)
}

func TestMonitor_ActivationWithoutAffordanceIgnored(t *testing.T) {
	m, doc, rec, _ := newMonitor(t, storePage, foreignURL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	doc.Emit(injector.Signal{Kind: injector.SignalReady})
	doc.Emit(injector.Signal{Kind: injector.SignalActivate})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.Links())
}

func TestMonitor_RestartDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, doc, _, _ := newMonitor(t, storePage, appURL)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.Start(ctx)
	}
	doc.Emit(injector.Signal{Kind: injector.SignalReady})
	require.Eventually(t, func() bool { return doc.Count(affSel) == 1 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	assert.ErrorIs(t, m.Activate(ctx), injector.ErrNotRunning)
}

func TestAffordance_HTMLCarriesLinkAndLabel(t *testing.T) {
	a := injector.Affordance{ID: injector.AffordanceID, Link: "steam://store/1", Label: "Open", Title: "t"}
	out := a.HTML()
	assert.Contains(t, out, `data-steam-url="steam://store/1"`)
	assert.Contains(t, out, `<span class="ois-text">Open</span>`)
}
