// Package store holds the item collection handed to the filter and view
// engines. Items keep the order in which they were first fetched.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/robby/ghlens/internal/domain"
)

var (
	// ErrNoRepository indicates no repository has been set in the store.
	ErrNoRepository = errors.New("no repository set")
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidRepository indicates a repository name not in owner/name form.
	ErrInvalidRepository = errors.New("invalid repository")
)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses "owner/name".
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: %q (want owner/name)", ErrInvalidRepository, s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// Store manages the in-memory item collection of one repository.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	repo *Repository

	// Item storage
	items map[string]domain.Item // ID -> Item
	order []string               // IDs in first-fetched order

	// Pagination state
	cursor      string
	hasNextPage bool
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		items: make(map[string]domain.Item),
	}
}

// SetRepository sets the repository the items belong to. Changing the
// repository clears the items.
func (s *Store) SetRepository(repo Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil && *s.repo != repo {
		s.clearLocked()
	}
	s.repo = &repo
}

// GetRepository returns the current repository, or ErrNoRepository.
func (s *Store) GetRepository() (Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.repo == nil {
		return Repository{}, ErrNoRepository
	}
	return *s.repo, nil
}

// UpsertItems adds new items at the end and replaces known items in place.
func (s *Store) UpsertItems(items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, exists := s.items[item.ID]; !exists {
			s.order = append(s.order, item.ID)
		}
		s.items[item.ID] = item
	}
}

// GetItem retrieves an item by ID, returning ErrItemNotFound if not found.
func (s *Store) GetItem(id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return domain.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

// Items returns all items in first-fetched order.
func (s *Store) Items() []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id])
	}
	return items
}

// IDs returns the item IDs in first-fetched order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// CountByState counts items per state.
func (s *Store) CountByState() map[domain.State]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.State]int, 2)
	for _, item := range s.items {
		counts[item.State]++
	}
	return counts
}

// SetPagination updates the pagination state.
func (s *Store) SetPagination(cursor string, hasNextPage bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
	s.hasNextPage = hasNextPage
}

// GetPagination returns the current pagination state.
func (s *Store) GetPagination() (cursor string, hasNextPage bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, s.hasNextPage
}

// Clear removes all items and pagination state, keeping the repository.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Reset completely resets the store to initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = nil
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.items = make(map[string]domain.Item)
	s.order = nil
	s.cursor = ""
	s.hasNextPage = false
}
