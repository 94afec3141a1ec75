package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/middleware"
	"github.com/hrive/hriveauth/role"
)

var (
	checkRole      string
	checkAllow     string
	checkPath      string
	checkAnonymous bool
	checkLoading   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Explain the guard decision for a role on a route",
	Long: `check evaluates the portal route guard without touching Redis.

  hrivectl check --role employee --allow admin --path /admin
  hrivectl check --anonymous --allow hr_manager --path /hr/payroll`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkRole, "role", "", "role of the signed-in user; empty means unresolved, unrecognized names are unknown")
	checkCmd.Flags().StringVar(&checkAllow, "allow", "", "comma-separated roles the route admits (required)")
	checkCmd.Flags().StringVar(&checkPath, "path", "/", "path being visited")
	checkCmd.Flags().BoolVar(&checkAnonymous, "anonymous", false, "evaluate for a signed-out visitor")
	checkCmd.Flags().BoolVar(&checkLoading, "loading", false, "evaluate while the session is still resolving")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	allowed, rejected := role.ParseSet(splitList(checkAllow)...)
	if len(rejected) > 0 {
		return fmt.Errorf("unknown role(s) in --allow: %s", strings.Join(rejected, ", "))
	}
	g, err := guard.New(allowed.Roles()...)
	if err != nil {
		return fmt.Errorf("--allow: %w", err)
	}

	s := guard.Session{Loading: checkLoading}
	if !checkAnonymous {
		s.User = &guard.User{ID: "hrivectl"}
		s.Role = role.Lookup(checkRole)
	}

	d := g.Evaluate(s, checkPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state:   %s\n", d.State)
	fmt.Fprintf(out, "outcome: %s\n", d.Outcome)
	fmt.Fprintf(out, "reason:  %s\n", d.Reason)
	if d.Redirect() {
		fmt.Fprintf(out, "target:  %s\n", middleware.RedirectURL(d))
		fmt.Fprintf(out, "replace: %t\n", d.Replace)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
