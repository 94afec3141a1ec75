package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var revokeUser string

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Sign a user out of every session",
	Args:  cobra.NoArgs,
	RunE:  runRevoke,
}

func init() {
	revokeCmd.Flags().StringVar(&revokeUser, "user", "", "user ID whose sessions are revoked (required)")
	rootCmd.AddCommand(revokeCmd)
}

func runRevoke(cmd *cobra.Command, _ []string) error {
	if revokeUser == "" {
		return errors.New("--user is required")
	}

	engine, closeEngine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeEngine()

	n, err := engine.LogoutAll(cmd.Context(), revokeUser)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) for %s\n", n, revokeUser)
	return nil
}
