// Package auth resolves the GitHub token used to fetch labels and items.
// Several providers are tried in order; the first one that yields a token wins.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrNoToken is returned when no provider could supply a token.
var ErrNoToken = errors.New("no GitHub token available")

// TokenProvider obtains a GitHub authentication token.
type TokenProvider interface {
	Name() string
	Token(ctx context.Context) (string, error)
}

// StaticProvider returns a token configured up front (config file or flag).
type StaticProvider struct {
	Value string
}

func (s StaticProvider) Name() string { return "config" }

func (s StaticProvider) Token(context.Context) (string, error) {
	token := strings.TrimSpace(s.Value)
	if token == "" {
		return "", errors.New("no token configured")
	}
	return token, nil
}

// GhCliProvider shells out to `gh auth token`, respecting the user's gh CLI
// login.
type GhCliProvider struct {
	Hostname string // defaults to github.com
}

func (g GhCliProvider) Name() string { return "gh cli" }

func (g GhCliProvider) Token(ctx context.Context) (string, error) {
	host := g.Hostname
	if host == "" {
		host = "github.com"
	}

	output, err := exec.CommandContext(ctx, "gh", "auth", "token", "--hostname", host).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", errors.New("gh CLI not found in PATH")
		}
		return "", fmt.Errorf("gh auth token failed: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("gh auth token returned empty token")
	}
	return token, nil
}

// EnvProvider reads the token from an environment variable.
type EnvProvider struct {
	Var string // defaults to GITHUB_TOKEN
}

func (e EnvProvider) Name() string { return "env " + e.variable() }

func (e EnvProvider) Token(context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(e.variable()))
	if token == "" {
		return "", fmt.Errorf("%s environment variable not set or empty", e.variable())
	}
	return token, nil
}

func (e EnvProvider) variable() string {
	if e.Var == "" {
		return "GITHUB_TOKEN"
	}
	return e.Var
}

// Chain tries providers in order and returns the first token found.
type Chain struct {
	Providers []TokenProvider
	Logger    *slog.Logger
}

// Token returns the first token any provider yields. When all fail, the error
// wraps ErrNoToken and lists every provider's failure.
func (c Chain) Token(ctx context.Context) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errs := make([]error, 0, len(c.Providers))
	for _, p := range c.Providers {
		token, err := p.Token(ctx)
		if err == nil {
			logger.Debug("resolved GitHub token", "provider", p.Name())
			return token, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return "", fmt.Errorf("%w (%w)\n"+
		"Please either:\n"+
		"  1. Run 'gh auth login' to authenticate with GitHub CLI, or\n"+
		"  2. Set the GITHUB_TOKEN environment variable with a personal access token, or\n"+
		"  3. Set token in the ghlens config file",
		ErrNoToken, errors.Join(errs...))
}

// DefaultChain returns the standard lookup order: the configured token, then
// the gh CLI, then GITHUB_TOKEN.
func DefaultChain(configured string, logger *slog.Logger) Chain {
	providers := make([]TokenProvider, 0, 3)
	if configured != "" {
		providers = append(providers, StaticProvider{Value: configured})
	}
	providers = append(providers, GhCliProvider{}, EnvProvider{})
	return Chain{Providers: providers, Logger: logger}
}

// GetToken resolves a token with DefaultChain.
func GetToken(ctx context.Context, configured string, logger *slog.Logger) (string, error) {
	return DefaultChain(configured, logger).Token(ctx)
}
