package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mira.app/federation/internal/model"
)

var (
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

func severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(colorError)
	case model.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return mutedStyle
	}
}

func policyStyle(s model.PolicyStatus) lipgloss.Style {
	switch s {
	case model.PolicyOK:
		return okStyle
	case model.PolicyWarn:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(colorError)
	}
}

// renderTable lays rows out in padded columns. The first row is the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Bold(true)
			}
			cells[i] = style.Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderIssues(p *model.PatchProposal) string {
	rows := [][]string{{"SEVERITY", "ISSUE", "HINT"}}
	for _, issue := range p.Issues {
		rows = append(rows, []string{
			severityStyle(issue.Severity).Render(string(issue.Severity)),
			issue.ID,
			issue.Hint,
		})
	}

	header := titleStyle.Render(fmt.Sprintf("%s  priority %.2f", p.TargetFile, p.Priority))
	return panelStyle.Render(header + "\n\n" + strings.TrimRight(renderTable(rows), "\n"))
}

func renderResult(r model.ResonanceResult) string {
	header := titleStyle.Render("Resonance") + "  " +
		policyStyle(r.Policy.Status).Render(fmt.Sprintf("%.3f %s", r.ResonanceIndex, r.Policy.Status)) +
		mutedStyle.Render("  "+r.Policy.Action)

	rows := [][]string{{"SOURCE", "COUNT", "CONFIDENCE", "UNCERTAINTY"}}
	for _, src := range sortedSources(r.PerSource) {
		s := r.PerSource[src]
		rows = append(rows, []string{src, fmt.Sprint(s.Count), fmt.Sprintf("%.3f", s.MeanConfidence), fmt.Sprintf("%.3f", s.MeanUncertainty)})
	}

	body := header + "\n\n" + strings.TrimRight(renderTable(rows), "\n")
	if r.Note != "" {
		body += "\n\n" + mutedStyle.Render(r.Note)
	}
	return panelStyle.Render(body)
}

func sortedSources(m map[string]model.SourceStats) []string {
	return slices.Sorted(maps.Keys(m))
}
