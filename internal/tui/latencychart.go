package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/qdblens/qdblens/internal/stats"
)

// renderLatencyChart draws average query latency per time bucket as a
// bar chart, newest buckets on the right.
func (m *DashboardModel) renderLatencyChart(width int, active bool) string {
	snap := m.store.Snapshot()
	buckets := stats.GroupByInterval(snap.Result.Records.Queries, m.opts.BucketInterval)

	title := chartTitleStyle.Render(fmt.Sprintf("Query Latency per %s Bucket", m.opts.BucketInterval))

	if len(buckets) == 0 {
		return m.sectionFrame(width, active).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No query records")))
	}

	chartWidth := width - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8

	maxBars := chartWidth / 2
	start := 0
	if len(buckets) > maxBars {
		start = len(buckets) - maxBars
	}
	visible := buckets[start:]

	barStyle := lipgloss.NewStyle().Foreground(ColorBlue).Background(ColorBlue)
	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for _, b := range visible {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: "avg", Value: b.AvgTime, Style: barStyle},
			},
		})
	}
	bc.Draw()

	var peak float64
	for _, b := range buckets {
		if b.MaxTime > peak {
			peak = b.MaxTime
		}
	}
	legend := helpStyle.Render(fmt.Sprintf("%d buckets · peak %.2f ms · %s → %s",
		len(buckets), peak,
		buckets[0].BucketStart.Format("15:04:05"),
		buckets[len(buckets)-1].BucketStart.Format("15:04:05")))

	content := strings.Join([]string{title, bc.View(), legend}, "\n")
	return m.sectionFrame(width, active).Render(content)
}
