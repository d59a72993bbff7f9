package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/gearbox/cmd/cli/client"
	"github.com/crucial707/gearbox/internal/models"
)

// InitWatch registers `gear watch`.
func InitWatch(rootCmd *cobra.Command) {
	var interval time.Duration
	var count int

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll equipment status and unread notifications",
		Long: `Print a one-line summary of equipment by status and your unread
notification count, refreshed on an interval until interrupted.

Example:
  gear watch --interval 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return Run(ctx, c, cmd.OutOrStdout(), interval, count)
		},
	}

	watchCmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "poll interval")
	watchCmd.Flags().IntVarP(&count, "count", "n", 0, "stop after n polls (0 = until interrupted)")

	rootCmd.AddCommand(watchCmd)
}

// Summary is one poll's worth of state.
type Summary struct {
	ByStatus map[models.Status]int
	Unread   int
}

func (s Summary) String() string {
	return fmt.Sprintf("available=%d in_use=%d maintenance=%d unread=%d",
		s.ByStatus[models.StatusAvailable], s.ByStatus[models.StatusInUse],
		s.ByStatus[models.StatusMaintenance], s.Unread)
}

// Poll fetches the equipment list and unread count once.
func Poll(c *client.Client) (Summary, error) {
	var items []models.Equipment
	if err := c.Do(http.MethodGet, "/equipment", nil, &items); err != nil {
		return Summary{}, err
	}
	var unread struct {
		Unread int `json:"unread"`
	}
	if err := c.Do(http.MethodGet, "/notifications/unread-count", nil, &unread); err != nil {
		return Summary{}, err
	}
	s := Summary{ByStatus: make(map[models.Status]int), Unread: unread.Unread}
	for _, e := range items {
		s.ByStatus[e.Status]++
	}
	return s, nil
}

// Run polls immediately and then on every tick, writing a line per poll.
// A failed poll is reported and the loop carries on. count > 0 bounds the polls.
func Run(ctx context.Context, c *client.Client, w io.Writer, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		stamp := time.Now().Format("15:04:05")
		if s, err := Poll(c); err != nil {
			fmt.Fprintf(w, "%s  error: %v\n", stamp, err)
		} else {
			fmt.Fprintf(w, "%s  %s\n", stamp, s)
		}
		if count > 0 && polls >= count {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
