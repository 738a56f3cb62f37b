package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/yuxishi/zvm-license-report/internal/config"
	"github.com/yuxishi/zvm-license-report/internal/model"
	"github.com/yuxishi/zvm-license-report/internal/pipeline"
)

var (
	okColor      = lipgloss.Color("#42c767")
	warningColor = lipgloss.Color("#ff9f43")
	dangerColor  = lipgloss.Color("#ff6b6b")
	primaryColor = lipgloss.Color("#7571f9")
	mutedColor   = lipgloss.Color("#6c757d")

	titleStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
)

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case model.SeverityCritical:
		return lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
	case model.SeverityWarning:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(primaryColor)
	}
}

func utilizationColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 95:
		return dangerColor
	case pct >= 80:
		return warningColor
	default:
		return okColor
	}
}

func printSummary(w io.Writer, res *pipeline.Result) {
	d := res.Data

	fmt.Fprintln(w, titleStyle.Render("Zerto Licensing Utilization"))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("run %s | Zerto v%s", d.Meta.RunID, d.Meta.ZertoVersion)))

	util := lipgloss.NewStyle().Foreground(utilizationColor(d.Metrics.UtilizationPct)).
		Render(fmt.Sprintf("%.1f%%", d.Metrics.UtilizationPct))

	rows := [][]string{
		{"Entitled VMs", strconv.Itoa(d.License.EntitledVMs)},
		{"Protected VMs", strconv.Itoa(d.Consumption.ProtectedVMs)},
		{"Utilization", util},
		{"Risk score", strconv.Itoa(d.Metrics.RiskScore)},
		{"Days to expiry", strconv.Itoa(d.Metrics.DaysToExpiry)},
		{"Forecast run-out", d.Metrics.ForecastRunoutDate},
		{"VPGs", fmt.Sprintf("%d (%d healthy, %d warning, %d critical)",
			d.Consumption.VPGs, d.Consumption.VpgStatus.Healthy, d.Consumption.VpgStatus.Warning, d.Consumption.VpgStatus.Critical)},
	}
	headers := []string{"METRIC", "VALUE"}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(primaryColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, cellPadding)
		}).
		Width(tableWidth(headers, rows)).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())

	for _, a := range d.Metrics.Alerts {
		label := severityStyle(a.Severity).Render(fmt.Sprintf("[%s]", a.Severity))
		fmt.Fprintf(w, "%s %s\n    %s\n", label, a.Message, mutedStyle.Render(a.Recommendation))
	}
	for _, p := range res.Paths {
		fmt.Fprintf(w, "%s %s\n", lipgloss.NewStyle().Foreground(okColor).Render("wrote"), p)
	}
}

const cellPadding = 1

// tableWidth fits every cell so the table is never truncated, even when
// stdout is not a terminal.
func tableWidth(headers []string, rows [][]string) int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	total := len(headers) + 1
	for _, w := range widths {
		total += w + 2*cellPadding
	}
	return total
}

func printError(w io.Writer, err error) {
	prefix := "error:"
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		prefix = "configuration error:"
	}
	fmt.Fprintln(w, errorStyle.Render(prefix), err)
}
