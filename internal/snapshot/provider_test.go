package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks checks for leaked goroutines after every other cleanup ran.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
}

type harness struct {
	labels chan source.Update[[]domain.Label]
	recs   chan source.Update[[]domain.Recommendation]
	p      *Provider
	events chan Event
	done   chan error
	cancel context.CancelFunc
}

func startProvider(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		labels: make(chan source.Update[[]domain.Label]),
		recs:   make(chan source.Update[[]domain.Recommendation]),
		events: make(chan Event, 16),
		done:   make(chan error, 1),
	}
	h.p = NewProvider(h.labels, h.recs, opts...)
	h.p.Subscribe(func(ev Event) { h.events <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.p.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func (h *harness) assertNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected event seq=%d", ev.Seq)
	case <-time.After(20 * time.Millisecond):
	}
}

var (
	bugLabel   = domain.Label{ID: "1", Name: "bug", Color: "d73a4a"}
	docsLabel  = domain.Label{ID: "2", Name: "docs", Color: "0075ca"}
	triageWarn = domain.Recommendation{ID: "w", Type: domain.RecommendationWarning, Message: "triage", Rule: domain.Rule{Labels: []string{"bug"}}}
)

func TestProvider_NoSnapshotUntilAllSourcesEmit(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	_, err := h.p.Latest()
	assert.ErrorIs(t, err, query.ErrMissingContext)

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.assertNoEvent(t)

	_, err = h.p.Latest()
	assert.ErrorIs(t, err, query.ErrMissingContext)

	h.recs <- source.Update[[]domain.Recommendation]{Value: []domain.Recommendation{triageWarn}}
	ev := h.next(t)
	require.NoError(t, ev.Err)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, uint64(1), ev.Seq)
	assert.Equal(t, "bug", ev.Snapshot.LabelsByID["1"].Name)

	latest, err := h.p.Latest()
	require.NoError(t, err)
	assert.Same(t, ev.Snapshot, latest)
}

func TestProvider_EveryEmissionReplacesSnapshot(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	first := h.next(t)

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel, docsLabel}}
	second := h.next(t)

	h.recs <- source.Update[[]domain.Recommendation]{Value: []domain.Recommendation{triageWarn}}
	third := h.next(t)

	assert.Less(t, first.Seq, second.Seq)
	assert.Less(t, second.Seq, third.Seq)

	// Each snapshot keeps its own pairing.
	assert.Len(t, first.Snapshot.LabelsByID, 1)
	assert.Empty(t, first.Snapshot.Recommendations)
	assert.Len(t, second.Snapshot.LabelsByID, 2)
	assert.Empty(t, second.Snapshot.Recommendations)
	assert.Len(t, third.Snapshot.LabelsByID, 2)
	assert.Len(t, third.Snapshot.Recommendations, 1)
}

func TestProvider_SubscribersShareOneSnapshot(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	other := make(chan Event, 4)
	h.p.Subscribe(func(ev Event) { other <- ev })

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}

	ev := h.next(t)
	otherEv := <-other
	assert.Same(t, ev.Snapshot, otherEv.Snapshot)
}

func TestProvider_LateSubscriberGetsLatest(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	ev := h.next(t)

	var got Event
	h.p.Subscribe(func(e Event) { got = e })
	assert.Same(t, ev.Snapshot, got.Snapshot)
}

func TestProvider_ReplayOrderedWithPublication(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	h.next(t)

	const subscribers = 16
	var (
		mu   sync.Mutex
		seen = make([][]uint64, subscribers)
		wg   sync.WaitGroup
	)
	for i := range subscribers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.p.Subscribe(func(ev Event) {
				mu.Lock()
				seen[i] = append(seen[i], ev.Seq)
				mu.Unlock()
			})
		}()
	}
	for range 30 {
		h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel, docsLabel}}
		h.next(t)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, seqs := range seen {
		require.NotEmpty(t, seqs, "subscriber %d", i)
		for j := 1; j < len(seqs); j++ {
			assert.Less(t, seqs[j-1], seqs[j], "subscriber %d saw %v", i, seqs)
		}
	}
}

func TestProvider_Unsubscribe(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	calls := make(chan Event, 4)
	id := h.p.Subscribe(func(ev Event) { calls <- ev })
	assert.True(t, h.p.Unsubscribe(id))
	assert.False(t, h.p.Unsubscribe(id))

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	h.next(t)

	assert.Empty(t, calls)
}

func TestProvider_SourceFailureClearsContext(t *testing.T) {
	verifyNoLeaks(t)

	h := &harness{
		labels: make(chan source.Update[[]domain.Label]),
		recs:   make(chan source.Update[[]domain.Recommendation]),
		events: make(chan Event, 16),
	}
	h.p = NewProvider(h.labels, h.recs)
	h.p.Subscribe(func(ev Event) { h.events <- ev })

	done := make(chan error, 1)
	go func() { done <- h.p.Run(context.Background()) }()

	h.labels <- source.Update[[]domain.Label]{Value: []domain.Label{bugLabel}}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	h.next(t)

	boom := errors.New("rate limited")
	h.labels <- source.Update[[]domain.Label]{Err: boom}

	ev := h.next(t)
	assert.Nil(t, ev.Snapshot)
	assert.ErrorIs(t, ev.Err, boom)

	err := <-done
	assert.ErrorIs(t, err, boom)

	_, err = h.p.Latest()
	assert.ErrorIs(t, err, query.ErrMissingContext)
	assert.ErrorIs(t, err, boom)
}

func TestProvider_SourceClosedBeforeFirstValue(t *testing.T) {
	verifyNoLeaks(t)

	ls := make(chan source.Update[[]domain.Label])
	recs := make(chan source.Update[[]domain.Recommendation])
	p := NewProvider(ls, recs)

	close(ls)
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestProvider_CompletedSourcesKeepLastSnapshot(t *testing.T) {
	verifyNoLeaks(t)

	ctx := context.Background()
	p := NewProvider(
		source.Static(ctx, []domain.Label{bugLabel}),
		source.Static(ctx, []domain.Recommendation{triageWarn}),
	)

	require.NoError(t, p.Run(ctx))

	snap, err := p.Latest()
	require.NoError(t, err)
	assert.Len(t, snap.Recommendations, 1)
}

func TestProvider_RunTwice(t *testing.T) {
	verifyNoLeaks(t)
	h := startProvider(t)

	// Wait until the background Run holds the running flag.
	require.Eventually(t, func() bool { return h.p.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, h.p.Run(context.Background()), ErrAlreadyRunning)
}

func TestProvider_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	verifyNoLeaks(t)
	h := &harness{
		labels: make(chan source.Update[[]domain.Label]),
		recs:   make(chan source.Update[[]domain.Recommendation]),
		events: make(chan Event, 16),
	}
	h.p = NewProvider(h.labels, h.recs)
	h.p.Subscribe(func(Event) { panic("bad handler") })
	h.p.Subscribe(func(ev Event) { h.events <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.p.Run(ctx) }()

	h.labels <- source.Update[[]domain.Label]{Value: nil}
	h.recs <- source.Update[[]domain.Recommendation]{Value: nil}
	ev := h.next(t)
	assert.NotNil(t, ev.Snapshot)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestProvider_RecommenderBoundToSnapshot(t *testing.T) {
	verifyNoLeaks(t)

	var seen []map[string]domain.Label
	fn := func(item domain.Item, recs []domain.Recommendation, byID map[string]domain.Label) []domain.Recommendation {
		seen = append(seen, byID)
		return recs
	}

	snap := Build([]domain.Label{bugLabel}, []domain.Recommendation{triageWarn}, fn)
	got := snap.RecommendationsFor(domain.Item{})

	assert.Len(t, got, 1)
	require.Len(t, seen, 1)
	assert.Equal(t, "bug", seen[0]["1"].Name)
}

func TestTracker_DropsOlderEvents(t *testing.T) {
	var tr Tracker

	_, err := tr.Current()
	assert.ErrorIs(t, err, query.ErrMissingContext)

	newer := Build(nil, nil, nil)
	older := Build(nil, nil, nil)

	assert.True(t, tr.Observe(Event{Seq: 2, Snapshot: newer}))
	assert.False(t, tr.Observe(Event{Seq: 1, Snapshot: older}))

	cur, err := tr.Current()
	require.NoError(t, err)
	assert.Same(t, newer, cur)

	assert.True(t, tr.Observe(Event{Seq: 3, Err: errors.New("gone")}))
	_, err = tr.Current()
	assert.ErrorIs(t, err, query.ErrMissingContext)
}
