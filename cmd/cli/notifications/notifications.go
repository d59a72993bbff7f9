package notifications

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/crucial707/gearbox/cmd/cli/client"
	"github.com/crucial707/gearbox/cmd/cli/output"
	"github.com/crucial707/gearbox/internal/models"
)

// InitNotifications registers the notifications command group.
func InitNotifications(rootCmd *cobra.Command) {
	notificationsCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "Read notifications addressed to you or your role",
	}

	notificationsCmd.AddCommand(listCmd(), readCmd(), readAllCmd())
	rootCmd.AddCommand(notificationsCmd)
}

func listCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			path := "/notifications"
			if unread {
				path += "?" + url.Values{"unread": {"true"}}.Encode()
			}
			var list []models.Notification
			if err := c.Do(http.MethodGet, path, nil, &list); err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications.")
				return nil
			}
			rows := make([][]interface{}, 0, len(list))
			for _, n := range list {
				mark := " "
				if !n.Read {
					mark = "*"
				}
				rows = append(rows, []interface{}{mark, n.ID, n.Type, n.Message, output.Ago(n.Date)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"", "ID", "Type", "Message", "When"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [id]",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Do(http.MethodPost, "/notifications/"+url.PathEscape(args[0])+"/read", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marked read.")
			return nil
		},
	}
}

func readAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification you can see read",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var resp struct {
				Updated int `json:"updated"`
			}
			if err := c.Do(http.MethodPost, "/notifications/read-all", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d notification(s) read.\n", resp.Updated)
			return nil
		},
	}
}
