package recommend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLabels() map[string]domain.Label {
	return labels.Index([]domain.Label{
		{ID: "1", Name: "bug"},
		{ID: "2", Name: "needs-triage"},
	})
}

func TestApplicable(t *testing.T) {
	yes := true
	recs := []domain.Recommendation{
		{ID: "triage", Type: domain.RecommendationWarning, Rule: domain.Rule{Labels: []string{"Needs-Triage"}}},
		{ID: "assign", Type: domain.RecommendationSuggestion, Rule: domain.Rule{State: domain.StateOpen, Unassigned: true}},
		{ID: "pr-only", Type: domain.RecommendationSuggestion, Rule: domain.Rule{PullRequest: &yes}},
		{ID: "not-bug", Type: domain.RecommendationSuggestion, Rule: domain.Rule{WithoutLabels: []string{"bug"}}},
		{ID: "always", Type: domain.RecommendationSuggestion},
	}

	tests := []struct {
		name string
		item domain.Item
		want []string
	}{
		{
			name: "open unassigned issue with triage label",
			item: domain.Item{State: domain.StateOpen, Labels: []string{"2"}},
			want: []string{"triage", "assign", "not-bug", "always"},
		},
		{
			name: "assigned bug",
			item: domain.Item{State: domain.StateOpen, Labels: []string{"1"}, Assignees: []string{"alice"}},
			want: []string{"always"},
		},
		{
			name: "closed pull request",
			item: domain.Item{State: domain.StateClosed, PullRequest: true},
			want: []string{"pr-only", "not-bug", "always"},
		},
		{
			name: "label missing from index is ignored",
			item: domain.Item{State: domain.StateClosed, Labels: []string{"99"}},
			want: []string{"not-bug", "always"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, r := range Applicable(tt.item, recs, testLabels()) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestApplicable_NoRecommendations(t *testing.T) {
	assert.Empty(t, Applicable(domain.Item{}, nil, testLabels()))
}

func TestOfType(t *testing.T) {
	recs := []domain.Recommendation{
		{ID: "a", Type: domain.RecommendationWarning},
		{ID: "b", Type: domain.RecommendationSuggestion},
		{ID: "c", Type: domain.RecommendationWarning},
	}

	warnings := OfType(recs, domain.RecommendationWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, "a", warnings[0].ID)
	assert.Equal(t, "c", warnings[1].ID)
}

const sampleDoc = `
recommendations:
  - id: triage
    type: warning
    message: Needs triage
    rule:
      state: open
      labels: [needs-triage]
  - id: assign
    type: suggestion
    message: Assign someone
    rule:
      unassigned: true
`

func TestParse(t *testing.T) {
	recs, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "triage", recs[0].ID)
	assert.Equal(t, domain.RecommendationWarning, recs[0].Type)
	assert.Equal(t, domain.StateOpen, recs[0].Rule.State)
	assert.Equal(t, []string{"needs-triage"}, recs[0].Rule.Labels)
	assert.True(t, recs[1].Rule.Unassigned)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("recommendations:\n  - id: x\n    type: hint\n"))
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = Parse([]byte("recommendations:\n  - id: x\n    type: warning\n    rule: {state: merged}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("recommendations: ["))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	recs, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestWatch_InitialLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recommendations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Watch(ctx, path, nil)

	first := <-ch
	require.NoError(t, first.Err)
	assert.Len(t, first.Value, 2)

	updated := "recommendations:\n  - id: only\n    type: suggestion\n    message: one\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	// A truncating write may surface an intermediate empty list first.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u := <-ch:
			require.NoError(t, u.Err)
			if len(u.Value) == 1 {
				assert.Equal(t, "only", u.Value[0].ID)
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_MissingFileIsTerminal(t *testing.T) {
	ch := Watch(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), nil)

	u, ok := <-ch
	require.True(t, ok)
	assert.Error(t, u.Err)

	_, ok = <-ch
	assert.False(t, ok)
}
