// Package csvutil writes the dashboard CSV export.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/shopspring/decimal"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// BOM makes spreadsheet apps detect UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Header returns the export column titles for the given currency code.
func Header(currency string) []string {
	return []string{
		"Project Name",
		"Description",
		"Start Date",
		"End Date",
		"Status",
		"Completion %",
		"Income (" + currency + ")",
		"Expenses (" + currency + ")",
		"Profit (" + currency + ")",
	}
}

// WriteProjects writes the header and one row per project, in collection
// order, with CRLF line endings. It does not write the BOM.
func WriteProjects(w io.Writer, projects []models.Project, currency string) error {
	if len(projects) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header(currency)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range projects {
		end := ""
		if p.EndDate != nil {
			end = *p.EndDate
		}
		row := []string{
			sanitizeCSVField(p.Name),
			sanitizeCSVField(p.Description),
			p.StartDate,
			end,
			p.Status,
			strconv.Itoa(p.Completion),
			amount(p.Income),
			amount(p.Expenses),
			amount(p.Profit),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write project %s: %w", p.ProjectID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names an export taken at t.
func ExportFilename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "dashboard-export-" + stamp + ".csv"
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// sanitizeCSVField keeps spreadsheet apps from evaluating free text as a
// formula.
func sanitizeCSVField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
