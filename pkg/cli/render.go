package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/alerting"
	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/routing"
)

// Palette.
var (
	colorPrimary = lipgloss.Color("63")
	colorSubtle  = lipgloss.Color("240")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle = lipgloss.NewStyle().Foreground(colorSubtle)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	errStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

const budgetBarWidth = 24

// renderText renders the result types the commands print.
func renderText(data any) (string, bool) {
	switch v := data.(type) {
	case routing.Decision:
		return RenderDecision(v), true
	case orchestrator.SweepReport:
		return RenderSweep(v), true
	case orchestrator.Dashboard:
		return RenderDashboard(v), true
	default:
		return "", false
	}
}

// RenderDecision renders a provider selection.
func RenderDecision(d routing.Decision) string {
	var b strings.Builder

	state := okStyle.Render("healthy")
	if d.Degraded {
		state = warnStyle.Render("degraded")
	}
	fmt.Fprintf(&b, "%s %s %s\n", titleStyle.Render(string(d.Provider)), labelStyle.Render("for "+d.Feature), state)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("code:  "), d.Code)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("reason:"), d.Reason)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("spend: "), d.Status.SpendSummary())
	for _, s := range d.Skipped {
		fmt.Fprintf(&b, "%s %s: %s\n", labelStyle.Render("skipped"), s.Provider, s.Reason)
	}
	return b.String()
}

// RenderSweep renders the triggered conditions of a sweep.
func RenderSweep(r orchestrator.SweepReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Health sweep"),
		labelStyle.Render(fmt.Sprintf("%d pairs in %s", len(r.Pairs), r.Duration.Round(time.Millisecond))))
	fmt.Fprintf(&b, "dispatched %d, suppressed %d, delivery failed %d\n",
		r.Dispatched, r.Suppressed, r.DeliveryFailed)

	triggered := 0
	for _, reports := range [][]alerting.Report{r.Pairs, r.Budgets} {
		for _, rep := range reports {
			for _, res := range rep.Results {
				if res.Outcome == alerting.OutcomeNotTriggered {
					continue
				}
				triggered++
				fmt.Fprintf(&b, "  %s %-28s %s\n", severity(string(res.Severity)), res.Key, outcome(res.Outcome))
			}
		}
	}
	if triggered == 0 {
		b.WriteString(okStyle.Render("  all providers within thresholds") + "\n")
	}
	if r.Error != "" {
		b.WriteString(errStyle.Render("interrupted: "+r.Error) + "\n")
	}
	return b.String()
}

// RenderDashboard renders budgets, per-provider quality and routing stats.
func RenderDashboard(d orchestrator.Dashboard) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Budgets") + "\n")
	for _, s := range d.Budgets {
		b.WriteString(BudgetLine(s) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Providers") + labelStyle.Render(fmt.Sprintf(" (last %s)", d.Window)) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s %8s %8s %10s %9s", "provider", "requests", "success", "latency", "cost")) + "\n")
	for _, s := range d.Budgets {
		m, ok := d.ByProvider[string(s.Provider)]
		if !ok {
			m = aggregate.Metrics{Provider: string(s.Provider)}
		}
		b.WriteString(metricsRow(m) + "\n")
	}
	b.WriteString(metricsRow(d.Overall) + "\n")

	if d.Routing != nil {
		fmt.Fprintf(&b, "\n%s %d selections, %d degraded\n",
			titleStyle.Render("Routing"), d.Routing.TotalRequests, d.Routing.DegradedCount)
	}
	if d.LastSweep != nil {
		fmt.Fprintf(&b, "%s %s, %d pairs, %d dispatched\n",
			titleStyle.Render("Last sweep"),
			d.LastSweep.StartedAt.Format("2006-01-02 15:04:05"),
			d.LastSweep.Pairs, d.LastSweep.Dispatched)
	}
	return b.String()
}

// BudgetLine renders one provider's budget with a usage bar.
func BudgetLine(s budget.Status) string {
	name := lipgloss.NewStyle().Width(12).Render(string(s.Provider))
	if s.Free {
		return fmt.Sprintf("  %s %s %s", name, okStyle.Render("free"), labelStyle.Render(s.SpendSummary()))
	}

	pct := lipgloss.NewStyle().Width(5).Align(lipgloss.Right).Render(fmt.Sprintf("%.0f%%", s.Percentage*100))
	line := fmt.Sprintf("  %s [%s] %s %s", name, BudgetBar(s.Percentage, budgetBarWidth), pct, labelStyle.Render(s.SpendSummary()))
	if !s.Available {
		line += " " + errStyle.Render("EXHAUSTED")
	}
	return line
}

// BudgetBar renders ratio (0-1, clamped) as a bar of width cells, coloured
// by how close the ratio is to 1.
func BudgetBar(ratio float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(ratio*float64(width) + 0.5)
	filled = max(0, min(filled, width))

	style := okStyle
	switch {
	case ratio >= 1:
		style = errStyle
	case ratio >= 0.8:
		style = warnStyle
	}

	return style.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", width-filled))
}

func metricsRow(m aggregate.Metrics) string {
	latency := "-"
	if m.LatencySamples > 0 {
		latency = fmt.Sprintf("%.0fms", m.AvgLatencyMs)
	}
	success := "-"
	if m.TotalRequests > 0 {
		success = fmt.Sprintf("%.1f%%", m.SuccessRate*100)
	}
	return fmt.Sprintf("  %-12s %8d %8s %10s %9s",
		m.Provider, m.TotalRequests, success, latency, fmt.Sprintf("$%.2f", m.TotalCost))
}

func severity(s string) string {
	label := fmt.Sprintf("%-8s", strings.ToUpper(s))
	if s == "critical" {
		return errStyle.Render(label)
	}
	return warnStyle.Render(label)
}

func outcome(o alerting.Outcome) string {
	switch o {
	case alerting.OutcomeDispatched:
		return okStyle.Render(string(o))
	case alerting.OutcomeDeliveryFailed:
		return errStyle.Render(string(o))
	default:
		return labelStyle.Render(string(o))
	}
}
