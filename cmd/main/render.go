package main

import (
	"fmt"
	"io"
	"time"

	"market-backfill/src/models"
	"market-backfill/src/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// -----------------------------------------------------------------------------

func renderGaps(out io.Writer, symbol string, gaps []models.MTimeRange, loc *time.Location) {
	t := newTable(out, fmt.Sprintf("%s gaps", symbol))
	t.AppendHeader(table.Row{"#", "Start", "End", "Minutes"})
	for i, g := range gaps {
		t.AppendRow(table.Row{i + 1, utils.FormatMinute(g.Start, loc), utils.FormatMinute(g.End, loc), fmt.Sprintf("%.0f", g.Minutes())})
	}
	t.AppendFooter(table.Row{"", "", "Total", fmt.Sprintf("%.0f", models.TotalMinutes(gaps))})
	t.Render()
}

// -----------------------------------------------------------------------------

func renderCoverage(out io.Writer, stats []models.MCoverageStat) {
	t := newTable(out, "Coverage")
	t.AppendHeader(table.Row{"Symbol", "Expected", "Missing", "Gaps", "Filled %", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Symbol, fmt.Sprintf("%.0f", s.ExpectedMinutes), fmt.Sprintf("%.0f", s.MissingMinutes), s.Gaps, fmt.Sprintf("%.2f", s.PercentFilled), s.Err})
	}
	t.Render()
}

// -----------------------------------------------------------------------------

func renderReport(out io.Writer, report *models.MRunReport) {
	t := newTable(out, fmt.Sprintf("Run %s (%s)", report.RunID, report.Operation))
	t.AppendHeader(table.Row{"Symbol", "Status", "Inserted", "Skipped", "Duration", "Error"})
	for _, r := range report.Succeeded {
		t.AppendRow(table.Row{r.Symbol, "ok", r.Inserted, r.Skipped, r.Duration.Round(time.Millisecond), ""})
	}
	for _, r := range report.Failed {
		t.AppendRow(table.Row{r.Symbol, "failed", r.Inserted, r.Skipped, r.Duration.Round(time.Millisecond), r.Err})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d/%d ok", len(report.Succeeded), len(report.Succeeded)+len(report.Failed)),
		report.TotalInserted(), "", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond), ""})
	t.Render()
}

// -----------------------------------------------------------------------------

func renderCalendar(out io.Writer, year int, days []models.MSessionWindow, holidays []models.MHoliday) {
	half := 0
	for _, d := range days {
		if d.IsHalfDay {
			half++
		}
	}

	t := newTable(out, fmt.Sprintf("%d: %d trading days, %d half days", year, len(days), half))
	t.AppendHeader(table.Row{"Date", "Holiday", "Session"})
	for _, h := range holidays {
		session := "closed"
		if h.IsHalfDay {
			session = "half day"
		}
		t.AppendRow(table.Row{h.Date.Format(utils.DateLayout), h.Name, session})
	}
	t.Render()
}

// -----------------------------------------------------------------------------

func renderCalendarDiff(out io.Writer, year int, diffs []utils.CalendarDiff) {
	describe := func(w models.MSessionWindow) string {
		if !w.IsTradingDay {
			return "closed"
		}
		return w.Open.Format("15:04") + "-" + w.Close.Format("15:04")
	}

	t := newTable(out, fmt.Sprintf("%d: builtin vs exchange, %d differences", year, len(diffs)))
	t.AppendHeader(table.Row{"Date", "Builtin", "Exchange"})
	for _, d := range diffs {
		t.AppendRow(table.Row{d.Date.Format(utils.DateLayout), describe(d.Left), describe(d.Right)})
	}
	t.Render()
}
