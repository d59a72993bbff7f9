package equipment

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/gearbox/cmd/cli/client"
	"github.com/crucial707/gearbox/cmd/cli/output"
	"github.com/crucial707/gearbox/internal/models"
)

// ==========================
// Init Equipment
// ==========================
func InitEquipment(rootCmd *cobra.Command) {

	equipmentCmd := &cobra.Command{
		Use:     "equipment",
		Aliases: []string{"eq"},
		Short:   "Manage equipment",
	}

	equipmentCmd.AddCommand(
		listCmd(),
		getCmd(),
		upsertCmd(),
		deleteCmd(),
		statusCmd(),
		reportCmd(),
		resolveCmd(),
		exportCmd(),
	)

	rootCmd.AddCommand(equipmentCmd)
}

// ==========================
// LIST
// ==========================
func listCmd() *cobra.Command {
	var status, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List equipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}

			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if category != "" {
				q.Set("category", category)
			}
			path := "/equipment"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var items []models.Equipment
			if err := c.Do(http.MethodGet, path, nil, &items); err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), items)
			}
			renderList(cmd, items)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (available, in_use, maintenance)")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func renderList(cmd *cobra.Command, items []models.Equipment) {
	rows := make([][]interface{}, 0, len(items))
	for i := range items {
		e := &items[i]
		lastIssue := "-"
		if l := e.LastLog(); l != nil {
			lastIssue = output.Ago(l.Date)
		}
		rows = append(rows, []interface{}{e.ID, e.Name, e.Brand, e.Category, e.Status, e.PurchaseDate, lastIssue})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Brand", "Category", "Status", "Purchased", "Last Issue"}, rows)
}

// ==========================
// GET
// ==========================
func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one item with its maintenance history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var e models.Equipment
			if err := c.Do(http.MethodGet, "/equipment/"+url.PathEscape(args[0]), nil, &e); err != nil {
				return err
			}
			return printItem(cmd, &e)
		},
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func printItem(cmd *cobra.Command, e *models.Equipment) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return output.PrintJSON(cmd.OutOrStdout(), e)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  %s (%s, %s)\n", e.ID, e.Name, e.Brand, e.Category)
	fmt.Fprintf(w, "Status: %s   Purchased: %s\n", e.Status, e.PurchaseDate)
	if len(e.Logs) == 0 {
		fmt.Fprintln(w, "No maintenance history.")
		return nil
	}
	rows := make([][]interface{}, 0, len(e.Logs))
	for _, l := range e.Logs {
		resolved := "open"
		if l.ResolvedAt != nil {
			resolved = output.Ago(*l.ResolvedAt)
		}
		rows = append(rows, []interface{}{output.Ago(l.Date), l.ReportedBy, l.Description, resolved})
	}
	output.RenderTable(w, []string{"Reported", "By", "Description", "Resolved"}, rows)
	return nil
}

// ==========================
// UPSERT
// ==========================
func upsertCmd() *cobra.Command {
	var id, name, brand, category, status, purchaseDate string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create an item, or replace it when --id names an existing one (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if purchaseDate != "" {
				if _, err := time.Parse("2006-01-02", purchaseDate); err != nil {
					return fmt.Errorf("--purchase-date must be YYYY-MM-DD")
				}
			}

			payload := map[string]string{
				"name":          name,
				"brand":         brand,
				"category":      category,
				"status":        status,
				"purchase_date": purchaseDate,
			}
			method, path := http.MethodPost, "/equipment"
			if id != "" {
				method, path = http.MethodPut, "/equipment/"+url.PathEscape(id)
			}

			var e models.Equipment
			if err := c.Do(method, path, payload, &e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", e.Name, e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "id of the item to replace")
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&brand, "brand", "", "brand")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&status, "status", "", "status (default available)")
	cmd.Flags().StringVar(&purchaseDate, "purchase-date", "", "purchase date, YYYY-MM-DD")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("category")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an item (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Do(http.MethodDelete, "/equipment/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Equipment deleted")
			return nil
		},
	}
}

// ==========================
// STATUS
// ==========================
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [available|in_use|maintenance]",
		Short: "Set an item's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.Status(args[1]).Valid() {
				return fmt.Errorf("invalid status %q", args[1])
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var e models.Equipment
			path := "/equipment/" + url.PathEscape(args[0]) + "/status"
			if err := c.Do(http.MethodPut, path, map[string]string{"status": args[1]}, &e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", e.Name, e.Status)
			return nil
		},
	}
}

// ==========================
// REPORT / RESOLVE
// ==========================
func reportCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "report [id]",
		Short: "Report an issue; the item goes into maintenance and admins are alerted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var e models.Equipment
			path := "/equipment/" + url.PathEscape(args[0]) + "/issues"
			if err := c.Do(http.MethodPost, path, map[string]string{"description": description}, &e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issue reported for %s; status is %s\n", e.Name, e.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what is wrong")
	cmd.MarkFlagRequired("description")
	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id]",
		Short: "Resolve the latest issue and return the item to service (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var e models.Equipment
			path := "/equipment/" + url.PathEscape(args[0]) + "/resolve"
			if err := c.Do(http.MethodPost, path, nil, &e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is back in service\n", e.Name)
			return nil
		},
	}
}

// ==========================
// EXPORT
// ==========================
func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the inventory as an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			n, err := c.Download("/equipment/export.xlsx", f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "equipment.xlsx", "output file")
	return cmd
}
