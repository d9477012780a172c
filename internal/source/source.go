// Package source adapts external data into push-based update streams.
// Every update carries a complete replacement value, never a delta.
package source

import (
	"context"
	"log/slog"
	"time"
)

// Update is one emission of a source: either a full value or a terminal error.
type Update[T any] struct {
	Value T
	Err   error
}

// FetchFunc loads the current full value of a source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Poll calls fetch immediately and then every interval, emitting each result.
// A fetch error is emitted as a terminal update and closes the stream.
// The stream is also closed when ctx is done.
func Poll[T any](ctx context.Context, interval time.Duration, fetch FetchFunc[T], logger *slog.Logger) <-chan Update[T] {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan Update[T])

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			value, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("source fetch failed", "error", err)
				send(ctx, out, Update[T]{Err: err})
				return
			}
			if !send(ctx, out, Update[T]{Value: value}) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// Static emits the given values in order and then closes the stream.
func Static[T any](ctx context.Context, values ...T) <-chan Update[T] {
	out := make(chan Update[T])
	go func() {
		defer close(out)
		for _, v := range values {
			if !send(ctx, out, Update[T]{Value: v}) {
				return
			}
		}
	}()
	return out
}

func send[T any](ctx context.Context, out chan<- Update[T], u Update[T]) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
