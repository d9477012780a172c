package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/recommend"
	"github.com/robby/ghlens/internal/source"
)

var (
	// ErrAlreadyRunning indicates Run was called on a provider that is already running.
	ErrAlreadyRunning = errors.New("provider already running")
	// ErrSourceClosed indicates a source ended before producing its first value.
	ErrSourceClosed = errors.New("source closed before first value")
)

// Handler receives provider events. Each handler sees events in publication
// order, starting with the replay made by Subscribe. Published events are
// delivered on the provider goroutine, the replay on the subscriber's.
// Handlers must not block or call Subscribe.
type Handler func(Event)

// Option configures a Provider.
type Option func(*Provider)

// WithRecommender sets the function bound into each snapshot for
// RecommendationsFor. Defaults to recommend.Applicable.
func WithRecommender(fn recommend.Func) Option {
	return func(p *Provider) {
		p.recommender = fn
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider combines the latest value of every source into a snapshot and
// publishes it to all subscribers. No snapshot exists until every source has
// emitted at least once. The label index is built once per emission and
// shared by all subscribers.
type Provider struct {
	labels      <-chan source.Update[[]domain.Label]
	recs        <-chan source.Update[[]domain.Recommendation]
	recommender recommend.Func
	logger      *slog.Logger

	// delivery serializes publication with the replay in Subscribe.
	delivery sync.Mutex

	mu     sync.RWMutex
	subs   map[string]Handler
	order  []string // subscription IDs in subscription order
	latest *Event
	seq    uint64

	running atomic.Bool
}

// NewProvider creates a provider over a label source and a recommendation source.
func NewProvider(
	ls <-chan source.Update[[]domain.Label],
	recs <-chan source.Update[[]domain.Recommendation],
	opts ...Option,
) *Provider {
	p := &Provider{
		labels:      ls,
		recs:        recs,
		recommender: recommend.Applicable,
		logger:      slog.Default(),
		subs:        make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes both sources until ctx is done, a source fails, or both
// sources are closed. A source failure publishes a failure event, which
// returns every subscriber to the no-context state, and is returned.
// Cancellation leaves the last snapshot in place.
func (p *Provider) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	var (
		ls                   []domain.Label
		recs                 []domain.Recommendation
		haveLabels, haveRecs bool
		labelsCh, recsCh     = p.labels, p.recs
	)

	for labelsCh != nil || recsCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case u, ok := <-labelsCh:
			if !ok {
				labelsCh = nil
				if !haveLabels {
					return p.fail(fmt.Errorf("label %w", ErrSourceClosed))
				}
				continue
			}
			if u.Err != nil {
				return p.fail(fmt.Errorf("label source: %w", u.Err))
			}
			ls, haveLabels = u.Value, true

		case u, ok := <-recsCh:
			if !ok {
				recsCh = nil
				if !haveRecs {
					return p.fail(fmt.Errorf("recommendation %w", ErrSourceClosed))
				}
				continue
			}
			if u.Err != nil {
				return p.fail(fmt.Errorf("recommendation source: %w", u.Err))
			}
			recs, haveRecs = u.Value, true
		}

		if haveLabels && haveRecs {
			p.publish(Event{Snapshot: Build(ls, recs, p.recommender)})
		}
	}

	p.logger.Debug("all context sources closed")
	return nil
}

// Subscribe registers a handler and returns its subscription ID. If an event
// has already been published, the handler receives it immediately.
func (p *Provider) Subscribe(h Handler) string {
	id := uuid.NewString()

	p.delivery.Lock()
	defer p.delivery.Unlock()

	p.mu.Lock()
	p.subs[id] = h
	p.order = append(p.order, id)
	latest := p.latest
	p.mu.Unlock()

	if latest != nil {
		p.deliver(h, *latest)
	}
	return id
}

// Unsubscribe removes a subscription and reports whether it existed.
// Events already being delivered may still reach the handler once.
func (p *Provider) Unsubscribe(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subs[id]; !ok {
		return false
	}
	delete(p.subs, id)
	for i, sid := range p.order {
		if sid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// Latest returns the most recently published snapshot. It fails with
// query.ErrMissingContext before the first complete combination and after a
// source failure.
func (p *Provider) Latest() (*Snapshot, error) {
	p.mu.RLock()
	latest := p.latest
	p.mu.RUnlock()
	return latest.Current()
}

func (p *Provider) fail(err error) error {
	p.logger.Error("context source failed", "error", err)
	p.publish(Event{Err: err})
	return err
}

func (p *Provider) publish(ev Event) {
	p.delivery.Lock()
	defer p.delivery.Unlock()

	p.mu.Lock()
	p.seq++
	ev.Seq = p.seq
	if ev.Snapshot != nil {
		ev.Snapshot.Seq = p.seq
	}
	p.latest = &ev
	handlers := make([]Handler, 0, len(p.order))
	for _, id := range p.order {
		handlers = append(handlers, p.subs[id])
	}
	p.mu.Unlock()

	if ev.Snapshot != nil {
		p.logger.Debug("context snapshot published",
			"seq", ev.Seq,
			"labels", len(ev.Snapshot.Labels),
			"recommendations", len(ev.Snapshot.Recommendations),
		)
	}

	for _, h := range handlers {
		p.deliver(h, ev)
	}
}

// deliver invokes a handler, recovering panics so one handler cannot stop
// delivery to the others.
func (p *Provider) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("snapshot handler panicked", "seq", ev.Seq, "panic", r)
		}
	}()
	h(ev)
}
