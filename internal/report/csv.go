package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/agenthours/internal/aggregate"
	"github.com/Sumatoshi-tech/agenthours/internal/segment"
)

// WriteSummaryCSV writes rollup rows as CSV.
func WriteSummaryCSV(w io.Writer, rows []aggregate.SummaryRow) error {
	cw := csv.NewWriter(w)

	header := []string{
		"config", "date", "hours", "sessions", "commits", "delta",
		"commits_per_hour", "delta_per_hour",
		"commits_per_hour_ex_outliers", "delta_per_hour_ex_outliers",
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			string(row.Label),
			formatDate(row.Date),
			formatFloat(row.Hours),
			strconv.Itoa(row.Sessions),
			strconv.Itoa(row.Commits),
			strconv.Itoa(row.Delta),
			formatFloat(row.CommitsPerHour),
			formatFloat(row.DeltaPerHour),
			formatFloat(row.CommitsPerHourEx),
			formatFloat(row.DeltaPerHourEx),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteSessionsCSV writes work intervals as CSV.
func WriteSessionsCSV(w io.Writer, intervals []segment.Interval) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"start", "end", "hours", "events", "project"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, iv := range intervals {
		record := []string{
			iv.Start.Format(time.RFC3339),
			iv.End.Format(time.RFC3339),
			formatFloat(iv.Duration().Hours()),
			strconv.Itoa(iv.Events),
			iv.Project,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
