package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/source"
	"gopkg.in/yaml.v3"
)

// ErrInvalidType indicates a recommendation whose type is neither warning nor suggestion.
var ErrInvalidType = errors.New("invalid recommendation type")

type fileDoc struct {
	Recommendations []domain.Recommendation `yaml:"recommendations"`
}

// Parse decodes a recommendations document.
func Parse(data []byte) ([]domain.Recommendation, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}

	for i, r := range doc.Recommendations {
		switch r.Type {
		case domain.RecommendationWarning, domain.RecommendationSuggestion:
		default:
			return nil, fmt.Errorf("recommendation %d (%q): %w: %q", i, r.ID, ErrInvalidType, r.Type)
		}
		if r.Rule.State != "" && r.Rule.State != domain.StateOpen && r.Rule.State != domain.StateClosed {
			return nil, fmt.Errorf("recommendation %d (%q): invalid rule state %q", i, r.ID, r.Rule.State)
		}
	}

	if doc.Recommendations == nil {
		return []domain.Recommendation{}, nil
	}
	return doc.Recommendations, nil
}

// LoadFile reads and parses a recommendations file.
func LoadFile(path string) ([]domain.Recommendation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recommendations: %w", err)
	}
	return Parse(data)
}

// Watch emits the recommendations in path, then re-emits them whenever the
// file changes. A failed initial load or a watcher failure is emitted as a
// terminal error. Later parse failures are logged and the edit is skipped,
// keeping the previously emitted list in effect.
func Watch(ctx context.Context, path string, logger *slog.Logger) <-chan source.Update[[]domain.Recommendation] {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan source.Update[[]domain.Recommendation])

	go func() {
		defer close(out)

		emit := func(u source.Update[[]domain.Recommendation]) bool {
			select {
			case out <- u:
				return true
			case <-ctx.Done():
				return false
			}
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			emit(source.Update[[]domain.Recommendation]{Err: fmt.Errorf("failed to create watcher: %w", err)})
			return
		}
		defer watcher.Close()

		// Watch the directory: editors often replace the file instead of writing it.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			emit(source.Update[[]domain.Recommendation]{Err: fmt.Errorf("failed to watch %s: %w", path, err)})
			return
		}

		recs, err := LoadFile(path)
		if err != nil {
			emit(source.Update[[]domain.Recommendation]{Err: err})
			return
		}
		if !emit(source.Update[[]domain.Recommendation]{Value: recs}) {
			return
		}

		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				recs, err := LoadFile(path)
				if err != nil {
					logger.Warn("ignoring recommendations edit", "path", path, "error", err)
					continue
				}
				logger.Debug("recommendations reloaded", "path", path, "count", len(recs))
				if !emit(source.Update[[]domain.Recommendation]{Value: recs}) {
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				emit(source.Update[[]domain.Recommendation]{Err: fmt.Errorf("recommendations watcher: %w", err)})
				return
			}
		}
	}()

	return out
}
