package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hrive/hriveauth/role"
)

var routesJSON bool

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the home path of every portal role",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

func init() {
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(routesCmd)
}

type routeEntry struct {
	Role string `json:"role"`
	Home string `json:"home"`
}

func routeTable() []routeEntry {
	out := make([]routeEntry, 0, 5)
	for _, r := range role.All() {
		out = append(out, routeEntry{Role: r.String(), Home: role.HomePath(r)})
	}
	return append(out, routeEntry{Role: "(none)", Home: role.HomePath(role.None)})
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	table := routeTable()
	if routesJSON {
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tHOME")
	for _, e := range table {
		fmt.Fprintf(w, "%s\t%s\n", e.Role, e.Home)
	}
	return w.Flush()
}
