// pkg/verify/report.go

package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steadyops/botstrap/pkg/strap_err"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	nameStyle = lipgloss.NewStyle().Width(24)
)

func marker(s Status) string {
	switch s {
	case StatusOK:
		return okStyle.Render("  OK  ")
	case StatusWarn:
		return warnStyle.Render(" WARN ")
	default:
		return failStyle.Render(" FAIL ")
	}
}

// Render produces the flat human-readable report: one line per probe plus
// summary counts.
func Render(results []ProbeResult) string {
	var sb strings.Builder

	for _, r := range results {
		fmt.Fprintf(&sb, "[%s] %s %s\n", marker(r.Status), nameStyle.Render(r.Name), r.Detail)
	}

	okCount, warnCount, failCount := Counts(results)
	fmt.Fprintf(&sb, "\n%d ok, %d warnings, %d failures\n", okCount, warnCount, failCount)
	return sb.String()
}

// RenderJSON produces the machine-readable report.
func RenderJSON(results []ProbeResult) (string, error) {
	okCount, warnCount, failCount := Counts(results)
	payload := struct {
		Probes   []ProbeResult `json:"probes"`
		OK       int           `json:"ok"`
		Warnings int           `json:"warnings"`
		Failures int           `json:"failures"`
	}{results, okCount, warnCount, failCount}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Counts tallies results by status.
func Counts(results []ProbeResult) (okCount, warnCount, failCount int) {
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			okCount++
		case StatusWarn:
			warnCount++
		case StatusFail:
			failCount++
		}
	}
	return
}

// ExitError converts results to the process outcome: an error (non-zero
// exit) exactly when at least one probe failed. Warnings alone never change
// the exit status.
func ExitError(results []ProbeResult) error {
	_, _, failCount := Counts(results)
	if failCount == 0 {
		return nil
	}
	return strap_err.NewExpectedError(&strap_err.ClassifiedError{
		Category: strap_err.CategorySystem,
		Message:  fmt.Sprintf("verification reported %d failing probe(s)", failCount),
	})
}
