package gh

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
	"github.com/robby/ghlens/internal/domain"
)

const labelsPageSize = 100

// ListLabels returns every label of a repository, following pagination.
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]domain.Label, error) {
	var (
		labels []domain.Label
		cursor string
	)

	for {
		req := graphql.NewRequest(`
			query($owner: String!, $repo: String!, $first: Int!, $after: String) {
				repository(owner: $owner, name: $repo) {
					labels(first: $first, after: $after) {
						pageInfo {
							hasNextPage
							endCursor
						}
						nodes {
							id
							name
							color
						}
					}
				}
			}
		`)
		req.Var("owner", owner)
		req.Var("repo", repo)
		req.Var("first", labelsPageSize)
		if cursor != "" {
			req.Var("after", cursor)
		} else {
			req.Var("after", nil)
		}

		var resp struct {
			Repository *struct {
				Labels struct {
					PageInfo pageInfo `json:"pageInfo"`
					Nodes    []struct {
						ID    string `json:"id"`
						Name  string `json:"name"`
						Color string `json:"color"`
					} `json:"nodes"`
				} `json:"labels"`
			} `json:"repository"`
		}

		if err := c.makeRequest(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to list labels: %w", err)
		}
		if resp.Repository == nil {
			return nil, fmt.Errorf("repository %s/%s not found", owner, repo)
		}

		for _, node := range resp.Repository.Labels.Nodes {
			labels = append(labels, domain.Label{ID: node.ID, Name: node.Name, Color: node.Color})
		}

		page := resp.Repository.Labels.PageInfo
		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}

	if labels == nil {
		labels = []domain.Label{}
	}
	return labels, nil
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}
