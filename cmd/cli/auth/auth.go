package auth

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/crucial707/gearbox/cmd/cli/client"
	"github.com/crucial707/gearbox/cmd/cli/config"
	"github.com/crucial707/gearbox/internal/models"
)

// InitAuth registers login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd())
}

// loginCmd picks a role and display name and stores the returned JWT locally.
func loginCmd() *cobra.Command {
	var name, role, passcode string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Gearbox API",
		Long: `Choose a role and display name, and store the issued token for later commands.

Example:
  gear login --name Sam --role user
  gear login --name Ana --role admin --passcode ****`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if !models.Role(role).Valid() {
				return fmt.Errorf("--role must be admin or user")
			}

			var resp struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			payload := map[string]string{"name": name, "role": role, "passcode": passcode}
			if err := client.New().Do(http.MethodPost, "/auth/login", payload, &resp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if resp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", resp.User.Name, resp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "role: admin or user")
	cmd.Flags().StringVar(&passcode, "passcode", "", "admin passcode, when the server requires one")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var u models.User
			if err := c.Do(http.MethodGet, "/auth/me", nil, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", u.Name, u.Role, u.ID)
			return nil
		},
	}
}
