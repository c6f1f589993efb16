package cmd

import (
	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/spf13/cobra"
)

// newReportCmd builds a metric command that runs one executor after the shared setup.
func newReportCmd(use, short, long string, run core.ExecutorFunc) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Args:    cobra.NoArgs,
		PreRunE: sharedSetupWrapper,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(rootCtx, cfg, storeManager); err != nil {
				contract.LogFatal("Cannot run "+use+" analysis", err)
			}
		},
	}
}

// reportCmds are the commands that read the record store and print one metric.
var reportCmds = []*cobra.Command{
	newReportCmd("identities", "List resolved contributor identities.",
		`Group commit author names and emails into contributor identities.

Authors are matched to registered users by email first, then by username or
display name. Unmatched pairs are grouped by email or by name.

Examples:
  # Identities seen in two repositories over the last 30 days
  gitpulse identities --repos acme/api,acme/web --window "30 days"`,
		core.ExecuteIdentities),
	newReportCmd("contributions", "Show commits, pull requests, reviews and lines per identity.",
		`Count the activity of every identity in the window.

With --all-time the commits are streamed from the record store instead of loaded at once.

Examples:
  gitpulse contributions --repos acme/api --output csv --output-file contributions.csv`,
		core.ExecuteContributions),
	newReportCmd("leaderboard", "Rank contributors by performance score.",
		`Score every identity on code quality, effort, velocity and consistency and rank them.

The top entry is the best performer. Strengths and improvement areas are derived
from the component scores. Weights can be tuned under "weights" in .gitpulse.yaml.

Examples:
  gitpulse leaderboard --repos acme/api --window "90 days" --limit 10
  gitpulse leaderboard --repos acme/api --archive --metrics-file leaderboard.prom`,
		core.ExecuteLeaderboard),
	newReportCmd("capacity", "Forecast team capacity and sprint risk.",
		`Classify each member as overloaded, optimal or underutilized from recent commit
velocity and forecast the output of the next sprint.

Examples:
  gitpulse capacity --repos acme/api,acme/web`,
		core.ExecuteCapacity),
	newReportCmd("burnout", "Assess burnout risk from commit timing.",
		`Score each contributor on late-night commits, weekend commits and stress keywords
in commit messages over the trailing burnout window.

Examples:
  gitpulse burnout --repos acme/api --output json`,
		core.ExecuteBurnout),
	newReportCmd("dora", "Compute the four DORA delivery metrics.",
		`Compute deployment frequency, lead time for changes, change failure rate and
mean time to restore. Merged pull requests stand in for deployments and bug
issues stand in for incidents when the better source is missing.

Examples:
  gitpulse dora --repos acme/api --window "30 days"`,
		core.ExecuteDORA),
	newReportCmd("bottlenecks", "Flag stuck, idle and churning pull requests.",
		`Inspect every open pull request and raise alerts for PRs without reviews,
PRs without recent updates and PRs with many review rounds.

Examples:
  gitpulse bottlenecks --repos acme/api --output csv`,
		core.ExecuteBottlenecks),
	newReportCmd("report", "Run every metric on one dataset.",
		`Load the records once and print the leaderboard, capacity, burnout, DORA and
bottleneck results together. With --archive all five are stored with the same
computation time.

Examples:
  gitpulse report --repos acme/api,acme/web --archive`,
		core.ExecuteReport),
}

// weightsCmd displays the formulas and the active weights.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Display the scoring formulas, weights and thresholds",
	Long: `Show the formulas behind every score together with the active weights and thresholds.

No records are read - this is purely informational.

Examples:
  # Show the default weights
  gitpulse weights

  # View with custom weights from config file
  gitpulse weights --config .gitpulse.yaml`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return resolveConfig(rootCtx, nil, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeights(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot display weights", err)
		}
	},
}
