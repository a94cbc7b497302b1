package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/agenthours/internal/aggregate"
)

// WriteComparisonPage renders an HTML page with a per-configuration rate
// bar chart and a per-day commit rate line chart.
func WriteComparisonPage(w io.Writer, byConfig, byDay []aggregate.SummaryRow) error {
	page := components.NewPage()
	page.PageTitle = "agenthours comparison"

	page.AddCharts(
		buildConfigBar(byConfig),
		buildDailyLine(byDay),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render comparison page: %w", err)
	}

	return nil
}

func buildConfigBar(rows []aggregate.SummaryRow) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Rates per configuration",
			Subtitle: "line delta per hour, raw vs outliers excluded",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(rows))
	raw := make([]opts.BarData, len(rows))
	ex := make([]opts.BarData, len(rows))

	for i, row := range rows {
		labels[i] = string(row.Label)
		raw[i] = opts.BarData{Value: row.DeltaPerHour}
		ex[i] = opts.BarData{Value: row.DeltaPerHourEx}
	}

	bar.SetXAxis(labels).
		AddSeries("delta/hr", raw).
		AddSeries("delta/hr ex outliers", ex)

	return bar
}

func buildDailyLine(rows []aggregate.SummaryRow) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Commit rate per day"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(rows))
	raw := make([]opts.LineData, len(rows))
	ex := make([]opts.LineData, len(rows))

	for i, row := range rows {
		labels[i] = formatDate(row.Date)
		raw[i] = opts.LineData{Value: row.CommitsPerHour}
		ex[i] = opts.LineData{Value: row.CommitsPerHourEx}
	}

	line.SetXAxis(labels).
		AddSeries("commits/hr", raw).
		AddSeries("commits/hr ex outliers", ex)

	return line
}
