package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gantryci/gantry/internal/archive"
	"github.com/gantryci/gantry/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Renderer produces the end-of-run report. Colored output is reserved for
// terminals; plain output goes to CI logs.
type Renderer struct {
	Colored bool
}

// Render formats the run result, the post-action log, and the archive report
// into a human-readable summary.
func (r Renderer) Render(result *model.RunResult, post []model.PostOutcome, report *archive.Report) string {
	var b strings.Builder

	b.WriteString(r.styled(titleStyle, fmt.Sprintf("Run %s: %s", result.RunID, strings.ToUpper(string(result.Status)))))
	b.WriteString(fmt.Sprintf("  (%s)\n", result.Duration.Round(time.Millisecond)))

	for _, stage := range result.Stages {
		b.WriteString(fmt.Sprintf("  %s %s", r.glyph(stage.Status), stage.Name))
		if stage.Status != model.StatusSkipped {
			b.WriteString(r.styled(detailStyle, fmt.Sprintf("  %s", stage.Duration.Round(time.Millisecond))))
		}
		b.WriteString("\n")

		for _, branch := range stage.Branches {
			b.WriteString(fmt.Sprintf("    %s %s\n", r.glyph(branch.Status), branch.Name))
			r.writeSteps(&b, "      ", append(branch.Steps, branch.Always...))
		}
		r.writeSteps(&b, "    ", stage.Steps)
	}

	if len(post) > 0 {
		b.WriteString("  post-actions:\n")
		for _, outcome := range post {
			b.WriteString(fmt.Sprintf("    %s [%s] %s\n", r.glyph(outcome.Status), outcome.Group, outcome.Name))
		}
	}

	if report != nil {
		b.WriteString(fmt.Sprintf("  archived %d artifact(s)\n", len(report.Artifacts)))
		for _, missing := range report.Missing {
			b.WriteString(r.styled(warningStyle, fmt.Sprintf("    missing required artifact: %s", missing)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (r Renderer) writeSteps(b *strings.Builder, indent string, steps []model.StepOutcome) {
	for _, step := range steps {
		b.WriteString(fmt.Sprintf("%s%s %s", indent, r.glyph(step.Status), step.Name))
		if step.Message != "" {
			b.WriteString(r.styled(detailStyle, fmt.Sprintf("  (%s)", step.Message)))
		}
		b.WriteString("\n")
	}
}

func (r Renderer) glyph(status string) string {
	switch status {
	case model.StatusSuccess:
		return r.styled(successStyle, "✓")
	case model.StatusWarning:
		return r.styled(warningStyle, "!")
	case model.StatusFailed:
		return r.styled(failureStyle, "✗")
	case model.StatusSkipped:
		return r.styled(skippedStyle, "-")
	default:
		return "?"
	}
}

func (r Renderer) styled(style lipgloss.Style, s string) string {
	if !r.Colored {
		return s
	}
	return style.Render(s)
}
