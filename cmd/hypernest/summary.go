package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/piwi3910/hypernest/internal/engine"
	"github.com/piwi3910/hypernest/internal/model"
)

var (
	accentFg  = lipgloss.Color("#7C3AED")
	warnFg    = lipgloss.Color("#F59E0B")
	borderCol = lipgloss.Color("#243141")
	dimFg     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}

	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(warnFg)
	dimStyle   = lipgloss.NewStyle().Foreground(dimFg)
)

// renderSummary formats the result of a run for the terminal.
func renderSummary(name string, r model.NestingResult, written []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sheets used: %d/%d  Utilization: %.1f%%  Generations: %d  Seed: %d\n",
		len(r.UsedSheets()), len(r.Sheets), r.Utilization*100, r.Generations, r.Seed)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderCol)).
		Headers("Sheet", "Stock", "Parts", "Used")
	for _, s := range r.UsedSheets() {
		t.Row(fmt.Sprintf("%d", s.Slot+1), fmt.Sprintf("%s #%d", s.Name, s.Copy+1), fmt.Sprintf("%d", s.PartCount), fmt.Sprintf("%.1f%%", s.Utilization*100))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	if !r.Feasible {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Layout has %d violations", len(r.Violations))))
		b.WriteString("\n")
	}
	if n := len(r.UnplacedParts); n > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d parts could not be placed", n)))
		b.WriteString("\n")
	}
	if r.Cancelled {
		b.WriteString(warnStyle.Render("Search cancelled, best layout so far"))
		b.WriteString("\n")
	}
	for _, p := range written {
		b.WriteString(dimStyle.Render("wrote " + p))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderComparison lists every scenario and marks the best.
func renderComparison(results []engine.ComparisonResult, best int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderCol)).
		Headers("", "Scenario", "Sheets", "Utilization", "Waste", "Unplaced")
	for i, r := range results {
		mark := ""
		if i == best {
			mark = "*"
		}
		if r.Err != nil {
			t.Row(mark, r.Scenario.Name, "-", "-", "-", r.Err.Error())
			continue
		}
		t.Row(mark, r.Scenario.Name,
			fmt.Sprintf("%d", r.SheetsUsed),
			fmt.Sprintf("%.1f%%", r.Utilization*100),
			fmt.Sprintf("%.1f%%", r.WastePercent),
			fmt.Sprintf("%d", r.UnplacedCount))
	}
	return titleStyle.Render("Scenario comparison") + "\n" + t.Render()
}
