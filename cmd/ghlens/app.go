package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/ghlens/internal/auth"
	"github.com/robby/ghlens/internal/config"
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/filter"
	"github.com/robby/ghlens/internal/gh"
	"github.com/robby/ghlens/internal/recommend"
	"github.com/robby/ghlens/internal/snapshot"
	"github.com/robby/ghlens/internal/source"
	"github.com/robby/ghlens/internal/store"
	"github.com/robby/ghlens/internal/tui"
	"github.com/robby/ghlens/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// app holds the engines shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	filterer *filter.Filterer
	viewer   *view.Viewer
}

// newApp loads the config, applies flag overrides and builds the engines.
// Nothing here talks to GitHub.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if ownerFlag != "" {
		cfg.Owner = ownerFlag
	}
	if repoFlag != "" {
		cfg.Owner, cfg.Repo = splitRepo(cfg.Owner, repoFlag)
	}
	if len(fieldsFlag) > 0 {
		cfg.ViewFields = fieldsFlag
	}
	if searchFlag != "" {
		cfg.Search = searchFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if limitFlag >= 0 {
		cfg.ItemLimit = limitFlag
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		filterer: filter.New(filter.ItemFields(), filter.WithLogger(logger)),
		viewer:   view.NewViewer(view.ItemFields(), view.WithLogger(logger)),
	}
	if err := cfg.Check(a.filterer.Registry(), a.viewer); err != nil {
		return nil, err
	}
	a.filterer.SetClauses(cfg.Filters)
	a.filterer.SetSearch(cfg.Search)
	return a, nil
}

func splitRepo(owner, repo string) (string, string) {
	if o, name, ok := strings.Cut(repo, "/"); ok {
		return o, name
	}
	return owner, repo
}

// connect validates the GitHub settings and creates an authenticated client.
func (a *app) connect(ctx context.Context) (*gh.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := auth.GetToken(ctx, a.cfg.Token, a.logger)
	if err != nil {
		return nil, err
	}
	return gh.New(token, gh.WithLogger(a.logger)), nil
}

// provider wires the label poller and the recommendations file into a
// context provider. The filter and view engines subscribe first so they have
// observed an event before any later subscriber sees it.
func (a *app) provider(ctx context.Context, client *gh.Client) *snapshot.Provider {
	labels := source.Poll(ctx, a.cfg.PollInterval, func(ctx context.Context) ([]domain.Label, error) {
		return client.ListLabels(ctx, a.cfg.Owner, a.cfg.Repo)
	}, a.logger)

	var recs <-chan source.Update[[]domain.Recommendation]
	if a.cfg.RecommendationsPath != "" {
		recs = recommend.Watch(ctx, a.cfg.RecommendationsPath, a.logger)
	} else {
		recs = source.Static(ctx, []domain.Recommendation{})
	}

	p := snapshot.NewProvider(labels, recs, snapshot.WithLogger(a.logger))
	p.Subscribe(a.filterer.Observe)
	p.Subscribe(a.viewer.Observe)
	return p
}

// awaitContext blocks until the provider publishes its first event.
func awaitContext(ctx context.Context, p *snapshot.Provider) error {
	ready := make(chan snapshot.Event, 1)
	id := p.Subscribe(func(ev snapshot.Event) {
		select {
		case ready <- ev:
		default:
		}
	})
	defer p.Unsubscribe(id)

	select {
	case ev := <-ready:
		return ev.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withContext runs fn while the provider runs in the background. The
// provider is stopped once fn returns.
func (a *app) withContext(cmd *cobra.Command, fn func(ctx context.Context, client *gh.Client, p *snapshot.Provider) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client, err := a.connect(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	p := a.provider(ctx, client)

	g.Go(func() error {
		runProvider(ctx, p, a.logger)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return fn(ctx, client, p)
	})
	return g.Wait()
}

// runProvider runs p until ctx is done. Source failures reach subscribers as
// events, so they do not end the command; they are logged instead.
func runProvider(ctx context.Context, p *snapshot.Provider, logger *slog.Logger) {
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("context provider stopped", "error", err)
	}
}

// loadItems fetches the items and waits for the first context snapshot.
func (a *app) loadItems(ctx context.Context, client *gh.Client, p *snapshot.Provider) ([]domain.Item, error) {
	g, gctx := errgroup.WithContext(ctx)

	var items []domain.Item
	g.Go(func() error {
		var err error
		items, err = client.AllItems(gctx, a.cfg.Owner, a.cfg.Repo, a.cfg.ItemLimit)
		return err
	})
	g.Go(func() error {
		return awaitContext(gctx, p)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.logger.Info("items loaded", "repo", a.cfg.Owner+"/"+a.cfg.Repo, "count", len(items))
	return items, nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}

	return a.withContext(cmd, func(ctx context.Context, client *gh.Client, p *snapshot.Provider) error {
		items, err := a.loadItems(ctx, client, p)
		if err != nil {
			return err
		}

		var matched []domain.Item
		if workersFlag > 0 {
			matched, err = a.filterer.FilterParallel(ctx, items, workersFlag)
		} else {
			matched, err = a.filterer.Filter(items)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, item := range matched {
			node, err := a.viewer.View(item, a.cfg.ViewFields)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "#%d %s\n", item.Number, item.URL)
			fmt.Fprintln(out, view.Terminal(node, 80))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d items matched\n", len(matched), len(items))
		return nil
	})
}

func runComplete(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	field := args[0]
	if _, ok := a.filterer.Registry().Lookup(field); !ok {
		return fmt.Errorf("unknown filter field %q (see 'ghlens fields')", field)
	}

	return a.withContext(cmd, func(ctx context.Context, client *gh.Client, p *snapshot.Provider) error {
		items, err := a.loadItems(ctx, client, p)
		if err != nil {
			return err
		}
		for _, v := range a.filterer.AutocompleteFor(field, items) {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	})
}

func runFields(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	filters := filter.ItemFields()
	fmt.Fprintln(out, "Filter fields:")
	for _, name := range filters.Names() {
		d, _ := filters.Lookup(name)
		ops := make([]string, 0, 4)
		for _, op := range d.Kind().Ops() {
			ops = append(ops, string(op))
		}
		line := fmt.Sprintf("  %-20s %-7s %s", name, d.Kind(), strings.Join(ops, ", "))
		if states := d.States(); len(states) > 0 {
			line += fmt.Sprintf(" [%s]", strings.Join(states, " | "))
		}
		fmt.Fprintln(out, line)
	}

	views := view.ItemFields()
	fmt.Fprintln(out, "\nView fields:")
	for _, name := range views.Names() {
		f, _ := views.Lookup(name)
		fmt.Fprintf(out, "  %-20s %s\n", name, f.Label)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if path := a.cfg.RecommendationsPath; path != "" {
		recs, err := recommend.LoadFile(path)
		if err != nil {
			return err
		}
		a.logger.Info("recommendations loaded", "path", path, "count", len(recs))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config ok: %s/%s, %d filters, %d view fields\n",
		a.cfg.Owner, a.cfg.Repo, len(a.cfg.Filters), len(a.cfg.ViewFields))
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.CreateTemp("", "ghlens-*.log")
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	a, err := newApp(logFile)
	if err != nil {
		return err
	}

	return a.withContext(cmd, func(ctx context.Context, client *gh.Client, p *snapshot.Provider) error {
		s := store.New()
		s.SetRepository(store.Repository{Owner: a.cfg.Owner, Name: a.cfg.Repo})

		model := tui.NewBrowseModel(ctx, tui.Options{
			Store:    s,
			Loader:   client,
			Filterer: a.filterer,
			Viewer:   a.viewer,
			Fields:   a.cfg.ViewFields,
			PageSize: gh.MaxPageSize,
			Limit:    a.cfg.ItemLimit,
			Search:   a.cfg.Search,
		})

		prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		p.Subscribe(tui.ContextHandler(prog))

		if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("program error: %w", err)
		}
		a.logger.Info("browser closed", "log", logFile.Name())
		return nil
	})
}
