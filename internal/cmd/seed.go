package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrive/hriveauth/internal/settings"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create portal users in Redis",
	Long: `seed creates every user listed in --file, or the configured test users
when no file is given. Users that already exist are left untouched.

The file is YAML, either a bare list or a list under "users":

  - email: admin@hrive.test
    password: HriveAdmin#2024
    role: admin
    full_name: HRive Admin`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file of users to create")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	engine, closeEngine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeEngine()

	users := engine.Config().Seed.Users
	if seedFile != "" {
		if users, err = settings.LoadSeedUsers(seedFile); err != nil {
			return err
		}
	}

	res, err := engine.SeedUsers(cmd.Context(), users)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, email := range res.Created {
		fmt.Fprintf(out, "created  %s\n", email)
	}
	for _, email := range res.Existing {
		fmt.Fprintf(out, "existing %s\n", email)
	}
	fmt.Fprintf(out, "%d created, %d already present\n", len(res.Created), len(res.Existing))
	return nil
}
