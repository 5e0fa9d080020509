package inspections

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/remote-inspect/cmd/cli/api"
	"github.com/crucial707/remote-inspect/cmd/cli/output"
	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// ==========================
// Init Inspections
// ==========================
func InitInspections(rootCmd *cobra.Command) {
	inspectionsCmd := &cobra.Command{
		Use:     "inspections",
		Aliases: []string{"ins"},
		Short:   "Browse and manage inspections",
	}

	inspectionsCmd.AddCommand(
		listCmd(),
		showCmd(),
		statusCmd(),
		duplicateCmd(),
	)

	rootCmd.AddCommand(inspectionsCmd)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid inspection id %q", arg)
	}
	return id, nil
}

// ==========================
// LIST
// ==========================
func listCmd() *cobra.Command {
	var jsonOut bool
	var status, address, inspector, number, from, to string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inspections, newest first",
		Long: `List inspections. Without --from only the last six months are shown.
Dates accept YYYY-MM-DD or RFC3339.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for k, v := range map[string]string{
				"status":         status,
				"address":        address,
				"inspector":      inspector,
				"internalNumber": number,
				"dateFrom":       from,
				"dateTo":         to,
			} {
				if v != "" {
					q.Set(k, v)
				}
			}
			q.Set("page", strconv.Itoa(page))
			q.Set("limit", strconv.Itoa(limit))

			var resp inspection.Page
			if err := api.Do("GET", "/inspections?"+q.Encode(), nil, &resp, true); err != nil {
				return err
			}

			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]interface{}, 0, len(resp.Inspections))
			for _, ins := range resp.Inspections {
				rows = append(rows, []interface{}{
					ins.ID, ins.InternalNumber, ins.Status, ins.PropertyType,
					ins.Address, ins.InspectorName, ins.CreatedAt.Local().Format(timeLayout),
				})
			}
			output.RenderTable(cmd.OutOrStdout(),
				[]string{"ID", "Number", "Status", "Type", "Address", "Inspector", "Created"}, rows)
			p := resp.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", p.Page, p.Pages, p.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output raw JSON")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&address, "address", "", "Filter by address substring")
	cmd.Flags().StringVar(&inspector, "inspector", "", "Filter by inspector name substring")
	cmd.Flags().StringVar(&number, "number", "", "Filter by internal number substring")
	cmd.Flags().StringVar(&from, "from", "", "Created on or after")
	cmd.Flags().StringVar(&to, "to", "", "Created on or before")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", inspection.DefaultPageSize, "Page size (max 100)")
	return cmd
}

// ==========================
// SHOW
// ==========================
func showCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an inspection with objects, photos and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var d inspection.Detail
			if err := api.Do("GET", fmt.Sprintf("/inspections/%d", id), nil, &d, true); err != nil {
				return err
			}
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), d)
			}
			printDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output raw JSON")
	return cmd
}

func printDetail(w io.Writer, d inspection.Detail) {
	ins := d.Inspection
	fmt.Fprintf(w, "%s  [%s]  %s\n", ins.InternalNumber, ins.Status, ins.PropertyType)
	fmt.Fprintf(w, "Address:   %s\n", ins.Address)
	fmt.Fprintf(w, "Inspector: %s <%s> %s\n", ins.InspectorName, ins.InspectorEmail, ins.InspectorPhone)
	if ins.Comment != "" {
		fmt.Fprintf(w, "Comment:   %s\n", ins.Comment)
	}
	if next := inspection.NextStatuses(ins.Status); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		fmt.Fprintf(w, "Next:      %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintln(w, "\nObjects")
	rows := make([][]interface{}, 0, len(d.Objects))
	for _, o := range d.Objects {
		rows = append(rows, []interface{}{o.ID, o.Name, objectSummary(o)})
	}
	output.RenderTable(w, []string{"ID", "Name", "Details"}, rows)

	fmt.Fprintf(w, "\nPhotos: %d\n", len(d.Photos))

	fmt.Fprintln(w, "\nHistory")
	rows = rows[:0]
	for _, h := range d.StatusHistory {
		rows = append(rows, []interface{}{h.CreatedAt.Local().Format(timeLayout), h.OldStatus, h.NewStatus, h.ChangedBy, h.Comment})
	}
	output.RenderTable(w, []string{"When", "From", "To", "By", "Comment"}, rows)
}

func objectSummary(o models.InspectionObject) string {
	switch {
	case o.Vehicle != nil:
		v := o.Vehicle
		return strings.TrimSpace(fmt.Sprintf("%s %s VIN:%s Plate:%s", v.Make, v.Model, v.VIN, v.Plate))
	case o.RealEstate != nil:
		return fmt.Sprintf("cadastral %s, %.1f m2", o.RealEstate.CadastralNumber, o.RealEstate.Area)
	case o.Equipment != nil:
		return fmt.Sprintf("S/N %s %s", o.Equipment.SerialNumber, o.Equipment.Manufacturer)
	}
	return ""
}

// ==========================
// STATUS
// ==========================
func statusCmd() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an inspection to a new status",
		Long:  "Move an inspection to a new status. Returning an inspection for revision requires --comment.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := models.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q (valid: %v)", args[1], models.Statuses)
			}

			var resp struct {
				Message    string            `json:"message"`
				Inspection models.Inspection `json:"inspection"`
			}
			payload := map[string]string{"status": string(status), "comment": comment}
			if err := api.Do("PATCH", fmt.Sprintf("/inspections/%d/status", id), payload, &resp, true); err != nil {
				var apiErr *api.Error
				if errors.As(err, &apiErr) && apiErr.Status == 409 {
					return fmt.Errorf("%w (reload with `inspect inspections show %d`)", err, id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", resp.Inspection.InternalNumber, resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Reason for the change")
	return cmd
}

// ==========================
// DUPLICATE
// ==========================
func duplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Start a new inspection from an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Inspection models.Inspection `json:"inspection"`
			}
			if err := api.Do("POST", fmt.Sprintf("/inspections/%d/duplicate", id), nil, &resp, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (id %d) at %s\n",
				resp.Inspection.InternalNumber, resp.Inspection.ID, resp.Inspection.CreatedAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}
