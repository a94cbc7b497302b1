// Package report renders aggregation results as terminal tables, CSV files,
// and HTML chart pages.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/agenthours/internal/aggregate"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

// WriteSummaryTable renders rollup rows as an aligned terminal table.
func WriteSummaryTable(w io.Writer, rows []aggregate.SummaryRow) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{
		"Config", "Date", "Hours", "Sessions", "Commits", "Delta",
		"Commits/h", "Delta/h", "Commits/h ex", "Delta/h ex",
	})

	for _, row := range rows {
		tbl.AppendRow(table.Row{
			string(row.Label),
			formatDate(row.Date),
			fmt.Sprintf("%.2f", row.Hours),
			row.Sessions,
			row.Commits,
			row.Delta,
			fmt.Sprintf("%.2f", row.CommitsPerHour),
			fmt.Sprintf("%.1f", row.DeltaPerHour),
			fmt.Sprintf("%.2f", row.CommitsPerHourEx),
			fmt.Sprintf("%.1f", row.DeltaPerHourEx),
		})
	}

	tbl.Render()
}

// WriteSessionsTable renders work intervals as an aligned terminal table.
func WriteSessionsTable(w io.Writer, intervals []segment.Interval) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Start", "End", "Hours", "Events", "Project"})

	for _, iv := range intervals {
		tbl.AppendRow(table.Row{
			iv.Start.Format(time.RFC3339),
			iv.End.Format(time.RFC3339),
			fmt.Sprintf("%.2f", iv.Duration().Hours()),
			iv.Events,
			iv.Project,
		})
	}

	tbl.AppendFooter(table.Row{
		"Total", "",
		fmt.Sprintf("%.2f", segment.TotalHours(intervals)),
		"", "",
	})

	tbl.Render()
}

func formatDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}

	return ts.Format(time.DateOnly)
}
