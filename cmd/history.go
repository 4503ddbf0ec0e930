package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently found leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		leads, err := st.RecentLeads(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "history")
		}
		if asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(leads)
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		formatStoredLeads(cmd.OutOrStdout(), leads)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <search-id>",
	Short: "Show the audit log of one search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		logs, err := st.LogsBySearch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "logs")
		}
		if len(logs) == 0 {
			fmt.Fprintf(os.Stderr, "No logs for search %s.\n", args[0])
			return nil
		}
		formatSearchLogs(cmd.OutOrStdout(), logs)
		return nil
	},
}

// formatLeadRecords prints the records of a finished search.
func formatLeadRecords(w io.Writer, leads []model.LeadRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tLEAD\tTITLE\tEMAIL\tPHONE\tPHASE")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateCell(l.CompanyName, 40), l.LeadName, l.LeadTitle, l.Email, l.Phone, l.SearchPhase)
	}
	_ = tw.Flush()
}

func formatStoredLeads(w io.Writer, leads []model.StoredLead) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOUND\tSEARCH\tCOMPANY\tLEAD\tEMAIL\tPHONE\tKEYWORDS")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.CreatedAt.Format("2006-01-02 15:04"),
			shortID(l.SearchID),
			truncateCell(l.Lead.CompanyName, 40),
			l.Lead.LeadName,
			l.Lead.Email,
			l.Lead.Phone,
			l.Keywords,
		)
	}
	_ = tw.Flush()
}

func formatSearchLogs(w io.Writer, logs []model.SearchLog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tCOMPANY\tMESSAGE")
	for _, e := range logs {
		company := e.CompanyName
		if company == "" {
			company = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("15:04:05"), e.Level, truncateCell(company, 30), e.Message)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateCell(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.Flags().Int("limit", store.DefaultRecentLimit, "number of leads to show")
	historyCmd.Flags().Bool("json", false, "print leads as JSON")
	rootCmd.AddCommand(historyCmd, logsCmd)
}
