package users

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/crucial707/remote-inspect/cmd/cli/api"
	"github.com/crucial707/remote-inspect/cmd/cli/output"
	"github.com/crucial707/remote-inspect/internal/models"
)

// InitUsers registers the admin user commands.
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (admin only)",
	}
	usersCmd.AddCommand(listUsersCmd())
	rootCmd.AddCommand(usersCmd)
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	var jsonOut bool
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", fmt.Sprint(limit))
			q.Set("offset", fmt.Sprint(offset))

			var resp struct {
				Users []models.User `json:"users"`
				Total int           `json:"total"`
			}
			if err := api.Do("GET", "/users?"+q.Encode(), nil, &resp, true); err != nil {
				return err
			}

			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), resp.Users)
			}
			rows := make([][]interface{}, 0, len(resp.Users))
			for _, u := range resp.Users {
				rows = append(rows, []interface{}{u.ID, u.Username, u.FullName, u.Role, u.IsActive})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Name", "Role", "Active"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(resp.Users), resp.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output raw JSON")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size (max 200)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}
