package store

import (
	"sync"
	"testing"

	"github.com/robby/ghlens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestItems() []domain.Item {
	return []domain.Item{
		{ID: "item_1", Number: 1, Title: "Fix bug", Repo: "test/repo", State: domain.StateOpen},
		{ID: "item_2", Number: 2, Title: "Add feature", Repo: "test/repo", State: domain.StateOpen, PullRequest: true},
		{ID: "item_3", Number: 3, Title: "Old task", Repo: "test/repo", State: domain.StateClosed},
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestNew(t *testing.T) {
	s := New()
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	_, err := s.GetRepository()
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestParseRepository(t *testing.T) {
	repo, err := ParseRepository(" octo/hello ")
	require.NoError(t, err)
	assert.Equal(t, Repository{Owner: "octo", Name: "hello"}, repo)
	assert.Equal(t, "octo/hello", repo.String())

	for _, bad := range []string{"", "octo", "/hello", "octo/", "a/b/c"} {
		_, err := ParseRepository(bad)
		assert.ErrorIs(t, err, ErrInvalidRepository, bad)
	}
}

func TestUpsertItems_KeepsFetchOrder(t *testing.T) {
	s := New()
	s.UpsertItems(createTestItems())

	// Re-fetching an item updates it without moving it.
	updated := domain.Item{ID: "item_1", Number: 1, Title: "Fix bug (edited)", State: domain.StateClosed}
	s.UpsertItems([]domain.Item{{ID: "item_4", Number: 4}, updated})

	assert.Equal(t, []string{"item_1", "item_2", "item_3", "item_4"}, ids(s.Items()))
	assert.Equal(t, []string{"item_1", "item_2", "item_3", "item_4"}, s.IDs())

	item, err := s.GetItem("item_1")
	require.NoError(t, err)
	assert.Equal(t, "Fix bug (edited)", item.Title)
}

func TestGetItem_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetItem("missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := New()
	s.UpsertItems(createTestItems())

	items := s.Items()
	items[0].Title = "mutated"

	item, err := s.GetItem("item_1")
	require.NoError(t, err)
	assert.Equal(t, "Fix bug", item.Title)
}

func TestCountByState(t *testing.T) {
	s := New()
	s.UpsertItems(createTestItems())

	assert.Equal(t, map[domain.State]int{domain.StateOpen: 2, domain.StateClosed: 1}, s.CountByState())
}

func TestPagination(t *testing.T) {
	s := New()

	cursor, hasNext := s.GetPagination()
	assert.Empty(t, cursor)
	assert.False(t, hasNext)

	s.SetPagination("cursor_abc", true)
	cursor, hasNext = s.GetPagination()
	assert.Equal(t, "cursor_abc", cursor)
	assert.True(t, hasNext)
}

func TestSetRepository_ChangeClearsItems(t *testing.T) {
	s := New()
	s.SetRepository(Repository{Owner: "test", Name: "repo"})
	s.UpsertItems(createTestItems())
	s.SetPagination("c", true)

	// Same repository keeps items.
	s.SetRepository(Repository{Owner: "test", Name: "repo"})
	assert.Equal(t, 3, s.Len())

	s.SetRepository(Repository{Owner: "test", Name: "other"})
	assert.Equal(t, 0, s.Len())
	cursor, hasNext := s.GetPagination()
	assert.Empty(t, cursor)
	assert.False(t, hasNext)
}

func TestClear(t *testing.T) {
	s := New()
	s.SetRepository(Repository{Owner: "test", Name: "repo"})
	s.UpsertItems(createTestItems())
	s.SetPagination("cursor", true)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	repo, err := s.GetRepository()
	require.NoError(t, err)
	assert.Equal(t, "test/repo", repo.String())
}

func TestReset(t *testing.T) {
	s := New()
	s.SetRepository(Repository{Owner: "test", Name: "repo"})
	s.UpsertItems(createTestItems())

	s.Reset()

	assert.Equal(t, 0, s.Len())
	_, err := s.GetRepository()
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestConcurrentUpserts(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpsertItems(createTestItems())
			_ = s.Items()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, s.Len())
}
