// Package export writes lead rows as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-finder/internal/model"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Headers are the column labels of every export.
var Headers = []string{"Company", "Lead Name", "Title", "Email", "Phone", "Search Phase", "Target URL"}

const sheetName = "Leads"

// ParseFormat accepts "csv" or "xlsx" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns a dated download name such as leads-20260102.csv.
func (f Format) FileName(now time.Time) string {
	return "leads-" + now.Format("20060102") + "." + string(f)
}

// Write encodes leads to w in format f.
func Write(w io.Writer, f Format, leads []model.StoredLead) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, leads)
	case CSV:
		return WriteCSV(w, leads)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteCSV writes an RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, leads []model.StoredLead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range leads {
		if err := cw.Write(row(l.Lead)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, leads []model.StoredLead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Headers)
	for _, l := range leads {
		addRow(sheet, row(l.Lead))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	r := sheet.AddRow()
	for _, c := range cells {
		r.AddCell().SetString(c)
	}
}

func row(l model.LeadRecord) []string {
	return []string{l.CompanyName, l.LeadName, l.LeadTitle, l.Email, l.Phone, l.SearchPhase, l.TargetURL}
}

// Summary is a one-line description of an export, used in CLI output.
func Summary(f Format, n int) string {
	return "exported " + strconv.Itoa(n) + " leads as " + string(f)
}
