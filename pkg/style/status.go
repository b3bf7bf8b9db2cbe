package style

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/templink/templink/pkg/types"
)

// OutcomeStyle returns the pterm style for one apply outcome.
func OutcomeStyle(status types.OutcomeStatus) *pterm.Style {
	switch status {
	case types.StatusCreated, types.StatusOverwritten:
		return pterm.NewStyle(pterm.FgGreen)
	case types.StatusIdentical:
		return pterm.NewStyle(pterm.FgGray)
	case types.StatusDryRun:
		return pterm.NewStyle(pterm.FgCyan)
	case types.StatusConflict:
		return pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	case types.StatusFailed:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	case types.StatusCancelled:
		return pterm.NewStyle(pterm.FgGray)
	default:
		return pterm.NewStyle(pterm.FgDefault)
	}
}

// OutcomeLabel is the human word printed for each outcome.
func OutcomeLabel(status types.OutcomeStatus) string {
	switch status {
	case types.StatusCreated:
		return "created"
	case types.StatusOverwritten:
		return "overwritten"
	case types.StatusIdentical:
		return "ok"
	case types.StatusDryRun:
		return "would create"
	case types.StatusConflict:
		return "conflict"
	case types.StatusFailed:
		return "failed"
	case types.StatusCancelled:
		return "cancelled"
	}
	return string(status)
}

// ArtifactStateStyle returns the pterm style for a status-report state.
func ArtifactStateStyle(state types.ArtifactState) *pterm.Style {
	switch state {
	case types.ArtifactIntact:
		return pterm.NewStyle(pterm.FgGreen)
	case types.ArtifactModified:
		return pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	case types.ArtifactMissing:
		return pterm.NewStyle(pterm.FgRed)
	default:
		return pterm.NewStyle(pterm.FgDefault)
	}
}

// RenderOutcome renders one outcome line: a fixed-width status label
// followed by the target path.
func RenderOutcome(o types.Outcome) string {
	label := fmt.Sprintf("%-12s", OutcomeLabel(o.Status))
	line := OutcomeStyle(o.Status).Sprint(label) + " " + PathStyle.Render(o.Action.Target)
	if o.Error != "" {
		line += " " + MutedStyle.Render("("+o.Error+")")
	}
	return line
}

// RenderArtifactStatus renders one status-report line.
func RenderArtifactStatus(s types.ArtifactStatus) string {
	label := fmt.Sprintf("%-10s", string(s.State))
	line := ArtifactStateStyle(s.State).Sprint(label) + " " + PathStyle.Render(s.Artifact.TargetPath)
	if s.Detail != "" {
		line += " " + MutedStyle.Render("("+s.Detail+")")
	}
	return line
}

// RenderTemplateHeader renders a template section header, e.g. "vim (dotfiles)".
func RenderTemplateHeader(name string, scope types.Scope) string {
	return SubtitleStyle.Render(name) + " " + MutedStyle.Render("("+string(scope)+")")
}
