// Package gh provides a GraphQL client for the GitHub API.
// It fetches the two inputs of the filter and view engines: the repository
// label catalogue and the issues and pull requests themselves.
package gh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/machinebox/graphql"
)

// DefaultEndpoint is the GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint (GitHub Enterprise, tests).
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a GitHub GraphQL API client.
type Client struct {
	gql      *graphql.Client
	endpoint string
	token    string
	logger   *slog.Logger
}

// New creates a client that authenticates with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		token:    token,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gql = graphql.NewClient(c.endpoint)
	return c
}

// makeRequest executes a GraphQL request with authentication.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	err := c.gql.Run(ctx, req, resp)
	c.logger.Debug("graphql request", "duration", time.Since(start), "error", err)
	return err
}

// parseTime parses a GitHub DateTime. Empty values map to the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
