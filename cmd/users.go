package cmd

import (
	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/spf13/cobra"
)

// usersCmd manages the registered user directory.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the registered user directory",
	Long: `Manage the registered users that commit authors are matched against.

Subcommands:
  import - Load users from a YAML file
  list   - Print the registered users`,
}

// usersImportCmd loads a users file.
var usersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import registered users from a YAML file",
	Long: `Load registered users from a YAML file. Existing users with the same id are replaced.

The file is a list of users or a mapping with a "users" list:

  users:
    - id: 1
      username: alice
      display_name: Alice Smith
      email: alice@example.com

Examples:
  gitpulse users import team.yaml`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return recordSetup(rootCtx, nil, nil)
	},
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteUsersImport(rootCtx, storeManager, args[0]); err != nil {
			contract.LogFatal("Cannot import users", err)
		}
	},
}

// usersListCmd prints the registered users.
var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return recordSetup(rootCtx, nil, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteUsersList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list users", err)
		}
	},
}
