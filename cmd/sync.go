package cmd

import (
	"context"
	"fmt"

	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
	"github.com/spf13/cobra"
)

// gitClient runs git for the local sync.
var gitClient contract.GitClient = contract.NewLocalGitClient()

// recordSetup validates the config and opens only the record store.
func recordSetup(ctx context.Context, client contract.GitClient, args []string) error {
	if err := resolveConfig(ctx, client, args); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.RecordBackend, cfg.RecordDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	return nil
}

// syncCmd groups the ingestion commands.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest activity into the record store",
	Long: `Fetch commits, pull requests, reviews, issues and deployments into the record store.

Every metric command reads from the record store, so run a sync first.
Saving is idempotent - running a sync twice keeps one copy of each record.

Subcommands:
  github - Fetch from the GitHub API
  git    - Read commits from a local clone`,
}

// syncGitHubCmd fetches the repositories in --repos from GitHub.
var syncGitHubCmd = &cobra.Command{
	Use:   "github",
	Short: "Fetch repository activity from the GitHub API",
	Long: `Fetch the activity of every repository in --repos from the GitHub API.

Repositories are fetched concurrently (--workers) behind a shared rate limit (--rate-limit).
The token is read from --github-token or GITPULSE_GITHUB_TOKEN.

Examples:
  GITPULSE_GITHUB_TOKEN=... gitpulse sync github --repos acme/api,acme/web --window "90 days"

  # GitHub Enterprise
  gitpulse sync github --repos acme/api --github-url https://github.example.com/api/v3/`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return recordSetup(rootCtx, nil, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSyncGitHub(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot sync from GitHub", err)
		}
	},
}

// syncGitCmd reads commits from a local clone.
var syncGitCmd = &cobra.Command{
	Use:   "git [repo-path]",
	Short: "Read commits from a local git clone",
	Long: `Read the commits of a local clone in the window into the record store.

The repository id defaults to owner/name of the origin remote. Use --repo-id to override it.

Examples:
  gitpulse sync git ~/src/api --window "180 days"
  gitpulse sync git . --repo-id acme/api`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		return recordSetup(rootCtx, gitClient, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSyncGit(rootCtx, cfg, storeManager, gitClient); err != nil {
			contract.LogFatal("Cannot sync from git", err)
		}
	},
}
