package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// CLI flags
	configFlag   string
	ownerFlag    string
	repoFlag     string
	fieldsFlag   []string
	searchFlag   string
	logLevelFlag string
	limitFlag    int
	workersFlag  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghlens",
		Short: "Filter and inspect GitHub issues and pull requests",
		Long: `ghlens filters the issues and pull requests of a repository and renders
them through configurable view fields.

Filters, view fields and the recommendations file are read from ghlens.yaml
(or the file named by --config or GHLENS_CONFIG).

Authentication:
  1. token in the config file
  2. GitHub CLI: Run 'gh auth login'
  3. Environment variable: Set GITHUB_TOKEN`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBrowse,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", "", "Config file path (default ghlens.yaml)")
	flags.StringVar(&ownerFlag, "owner", "", "Repository owner. Overrides the config file.")
	flags.StringVar(&repoFlag, "repo", "", "Repository name or owner/name. Overrides the config file.")
	flags.StringSliceVar(&fieldsFlag, "fields", nil, "View fields to render, comma separated")
	flags.StringVar(&searchFlag, "search", "", "Free-text search applied before the filter clauses")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	flags.IntVar(&limitFlag, "limit", -1, "Maximum number of items to fetch, 0 for all")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the items that pass the configured filters",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().IntVar(&workersFlag, "workers", 0, "Evaluate the filter with this many workers")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "browse",
			Short: "Browse the filtered items in a terminal UI (default)",
			Args:  cobra.NoArgs,
			RunE:  runBrowse,
		},
		listCmd,
		&cobra.Command{
			Use:   "complete FIELD",
			Short: "Print autocomplete suggestions for a filter field",
			Args:  cobra.ExactArgs(1),
			RunE:  runComplete,
		},
		&cobra.Command{
			Use:   "fields",
			Short: "List the filter and view fields",
			Args:  cobra.NoArgs,
			RunE:  runFields,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the config file without contacting GitHub",
			Args:  cobra.NoArgs,
			RunE:  runCheck,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
