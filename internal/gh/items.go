package gh

import (
	"context"
	"fmt"
	"strings"

	"github.com/machinebox/graphql"
	"github.com/robby/ghlens/internal/domain"
)

// MaxPageSize is the largest page the search API returns.
const MaxPageSize = 100

// itemFields is shared by the Issue and PullRequest fragments.
const itemFields = `
	id
	number
	url
	title
	body
	state
	createdAt
	updatedAt
	closedAt
	author {
		login
	}
	repository {
		nameWithOwner
	}
	assignees(first: 20) {
		nodes {
			login
		}
	}
	labels(first: 50) {
		nodes {
			id
		}
	}
	comments {
		totalCount
	}
	reactions(content: THUMBS_UP) {
		totalCount
	}
`

var itemsQuery = `
	query($query: String!, $first: Int!, $after: String) {
		search(query: $query, type: ISSUE, first: $first, after: $after) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				__typename
				... on Issue {` + itemFields + `}
				... on PullRequest {` + itemFields + `
					commits(last: 1) {
						nodes {
							commit {
								status {
									contexts {
										state
									}
								}
							}
						}
					}
				}
			}
		}
	}
`

type itemNode struct {
	Typename  string `json:"__typename"`
	ID        string `json:"id"`
	Number    int    `json:"number"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	ClosedAt  string `json:"closedAt"`
	Author    *struct {
		Login string `json:"login"`
	} `json:"author"`
	Repository *struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Assignees *struct {
		Nodes []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"assignees"`
	Labels *struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	} `json:"labels"`
	Comments *struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	Reactions *struct {
		TotalCount int `json:"totalCount"`
	} `json:"reactions"`
	Commits *struct {
		Nodes []struct {
			Commit struct {
				Status *struct {
					Contexts []struct {
						State string `json:"state"`
					} `json:"contexts"`
				} `json:"status"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
}

// ListItems fetches one page of the issues and pull requests of a repository,
// most recently updated first. Returns items, next cursor, and whether there
// are more items.
func (c *Client) ListItems(ctx context.Context, owner, repo, cursor string, limit int) ([]domain.Item, string, bool, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	req := graphql.NewRequest(itemsQuery)
	req.Var("query", fmt.Sprintf("repo:%s/%s sort:updated-desc", owner, repo))
	req.Var("first", limit)
	if cursor != "" {
		req.Var("after", cursor)
	} else {
		req.Var("after", nil)
	}

	var resp struct {
		Search struct {
			PageInfo pageInfo   `json:"pageInfo"`
			Nodes    []itemNode `json:"nodes"`
		} `json:"search"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, "", false, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]domain.Item, 0, len(resp.Search.Nodes))
	for _, node := range resp.Search.Nodes {
		// Search may return other node types; only issues and PRs are items.
		if node.Typename != "Issue" && node.Typename != "PullRequest" {
			continue
		}
		item, err := node.toItem()
		if err != nil {
			return nil, "", false, fmt.Errorf("item %s: %w", node.ID, err)
		}
		items = append(items, item)
	}

	return items, resp.Search.PageInfo.EndCursor, resp.Search.PageInfo.HasNextPage, nil
}

// AllItems fetches items page by page until max items were read or there are
// no more pages. A max of zero or less means no limit.
func (c *Client) AllItems(ctx context.Context, owner, repo string, max int) ([]domain.Item, error) {
	var (
		all    []domain.Item
		cursor string
	)
	for {
		limit := MaxPageSize
		if max > 0 && max-len(all) < limit {
			limit = max - len(all)
		}

		items, next, more, err := c.ListItems(ctx, owner, repo, cursor, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if !more || (max > 0 && len(all) >= max) {
			break
		}
		cursor = next
	}

	c.logger.Debug("fetched items", "repo", owner+"/"+repo, "count", len(all))
	return all, nil
}

func (n itemNode) toItem() (domain.Item, error) {
	item := domain.Item{
		ID:          n.ID,
		Number:      n.Number,
		URL:         n.URL,
		Title:       n.Title,
		Body:        n.Body,
		State:       domain.StateOpen,
		PullRequest: n.Typename == "PullRequest",
		Reactions:   map[string]int{},
	}

	// Merged pull requests count as closed.
	if !strings.EqualFold(n.State, "OPEN") {
		item.State = domain.StateClosed
	}

	var err error
	if item.Created, err = parseTime(n.CreatedAt); err != nil {
		return domain.Item{}, err
	}
	if item.Updated, err = parseTime(n.UpdatedAt); err != nil {
		return domain.Item{}, err
	}
	if item.Closed, err = parseTime(n.ClosedAt); err != nil {
		return domain.Item{}, err
	}

	if n.Author != nil {
		item.Reporter = n.Author.Login
	}
	if n.Repository != nil {
		item.Repo = n.Repository.NameWithOwner
	}
	if n.Assignees != nil {
		item.Assignees = make([]string, 0, len(n.Assignees.Nodes))
		for _, a := range n.Assignees.Nodes {
			item.Assignees = append(item.Assignees, a.Login)
		}
	}
	if n.Labels != nil {
		item.Labels = make([]string, 0, len(n.Labels.Nodes))
		for _, l := range n.Labels.Nodes {
			item.Labels = append(item.Labels, l.ID)
		}
	}
	if n.Comments != nil {
		item.Comments = n.Comments.TotalCount
	}
	if n.Reactions != nil {
		item.Reactions[domain.ReactionThumbsUp] = n.Reactions.TotalCount
	}
	if n.Commits != nil {
		for _, c := range n.Commits.Nodes {
			if c.Commit.Status == nil {
				continue
			}
			for _, s := range c.Commit.Status.Contexts {
				item.Statuses = append(item.Statuses, domain.Status{State: s.State})
			}
		}
	}

	return item, nil
}
