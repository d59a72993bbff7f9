package root

import (
	"github.com/spf13/cobra"

	"github.com/crucial707/gearbox/cmd/cli/auth"
	"github.com/crucial707/gearbox/cmd/cli/equipment"
	"github.com/crucial707/gearbox/cmd/cli/notifications"
	"github.com/crucial707/gearbox/cmd/cli/watch"
)

// New builds the gear command tree.
func New() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gear",
		Short:         "Gearbox equipment inventory CLI",
		Long:          "Command line interface for the Gearbox equipment inventory API.\nSet GEARBOX_API_URL to point at a server other than http://localhost:8080.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	auth.InitAuth(rootCmd)
	equipment.InitEquipment(rootCmd)
	notifications.InitNotifications(rootCmd)
	watch.InitWatch(rootCmd)

	return rootCmd
}
