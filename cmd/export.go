package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/export"
	"github.com/sells-group/lead-finder/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent leads to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		formatName, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetInt("limit")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.RecentLeads(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if output == "" {
			output = format.FileName(time.Now())
		}
		var w io.Writer = cmd.OutOrStdout()
		if output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", output)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := export.Write(w, format, leads); err != nil {
			return err
		}
		if output != "-" {
			fmt.Fprintf(os.Stderr, "%s -> %s\n", export.Summary(format, len(leads)), output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (default leads-YYYYMMDD.<format>)")
	exportCmd.Flags().Int("limit", store.DefaultRecentLimit, "number of recent leads to export")
	rootCmd.AddCommand(exportCmd)
}
