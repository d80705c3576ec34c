package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/qdblens/qdblens/internal/stats"
)

func (m *DashboardModel) renderContent() string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}

	sections := []string{
		m.renderSummary(width, m.activeSection == 0),
		m.renderLatencyChart(width, m.activeSection == 1),
		m.renderTopQueries(width, m.activeSection == 2),
		m.renderTables(width, m.activeSection == 3),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *DashboardModel) sectionFrame(width int, active bool) lipgloss.Style {
	if active {
		return activeSectionStyle.Width(width)
	}
	return sectionStyle.Width(width)
}

func (m *DashboardModel) renderSummary(width int, active bool) string {
	snap := m.store.Snapshot()
	all := snap.Result.Records.All()
	tm := stats.TimeMetrics(all)

	var lines []string
	lines = append(lines, chartTitleStyle.Render("Ingest Summary"))
	lines = append(lines, fmt.Sprintf("%s %s",
		labelStyle.Render("Records:"),
		valueStyle.Render(fmt.Sprintf("%d", len(all)))))
	if !tm.StartTime.IsZero() {
		lines = append(lines, fmt.Sprintf("%s %s → %s (%.1fs, %.1f rec/s)",
			labelStyle.Render("Span:"),
			tm.StartTime.Format("15:04:05"),
			tm.EndTime.Format("15:04:05"),
			tm.DurationSeconds, tm.Rate))
	}

	for _, md := range snap.Result.FileMetadata {
		lines = append(lines, fmt.Sprintf("  %s  %d records, %d skipped lines",
			labelStyle.Render(md.FileName), md.RecordCount, md.SkippedLines))
	}
	for _, fe := range snap.Result.Errors {
		lines = append(lines, errorStyle.Render("  "+fe.Message))
	}
	if len(all) == 0 && len(snap.Result.Errors) == 0 {
		lines = append(lines, helpStyle.Render("No log files ingested yet"))
	}

	return m.sectionFrame(width, active).Render(strings.Join(lines, "\n"))
}

func (m *DashboardModel) renderTopQueries(width int, active bool) string {
	snap := m.store.Snapshot()
	top := stats.TopQueries(snap.Result.Records.Queries, m.opts.TopQueryLimit)

	var lines []string
	lines = append(lines, chartTitleStyle.Render("Top Queries by Max Time"))

	if len(top) == 0 {
		lines = append(lines, helpStyle.Render("No queries found"))
	} else {
		lines = append(lines, headerStyle.Render(fmt.Sprintf(
			"%-9s %-7s %-9s %-9s %-9s %s", "max ms", "count", "avg ms", "p95 ms", "p99 ms", "query")))
		sigWidth := width - 50
		if sigWidth < 10 {
			sigWidth = 10
		}
		for _, q := range top {
			sig := q.Signature
			if len(sig) > sigWidth {
				sig = sig[:sigWidth-3] + "..."
			}
			lines = append(lines, fmt.Sprintf("%-9.2f %-7d %-9.2f %-9.2f %-9.2f %s",
				q.MaxTime, q.SampleCount, q.AvgTime, q.P95, q.P99, labelStyle.Render(sig)))
		}
	}

	return m.sectionFrame(width, active).Render(strings.Join(lines, "\n"))
}

func (m *DashboardModel) renderTables(width int, active bool) string {
	snap := m.store.Snapshot()
	metrics := stats.AggregateWalMetrics(snap.Result.Records.WalApplies)

	var lines []string
	lines = append(lines, chartTitleStyle.Render("WAL Apply by Table"))

	if len(metrics) == 0 {
		lines = append(lines, helpStyle.Render("No WAL apply jobs found"))
	} else {
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		lines = append(lines, headerStyle.Render(fmt.Sprintf(
			"%-20s %-7s %-12s %-9s %s", "table", "jobs", "rows", "ampl", "rows/s")))
		for _, name := range names {
			t := metrics[name]
			display := name
			if len(display) > 20 {
				display = display[:17] + "..."
			}
			lines = append(lines, fmt.Sprintf("%-20s %-7d %-12d %-9.2f %.0f",
				display, t.JobCount, t.TotalRows, t.AvgAmplification, t.AvgRate))
		}
	}

	return m.sectionFrame(width, active).Render(strings.Join(lines, "\n"))
}
