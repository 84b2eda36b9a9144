// pkg/strap_err/summary.go

package strap_err

import (
	"strings"

	"github.com/steadyops/botstrap/pkg/shared"
)

// ExtractSummary pulls the most informative lines out of captured command
// output so a failed apt or nginx run surfaces its real complaint instead of
// pages of progress noise.
func ExtractSummary(output string, maxCandidates int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "No output provided."
	}

	lines := strings.Split(trimmed, "\n")
	var candidates []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowerLine := strings.ToLower(line)
		if strings.Contains(lowerLine, "error") ||
			strings.Contains(lowerLine, "failed") ||
			strings.Contains(lowerLine, "cannot") ||
			strings.Contains(lowerLine, "panic") ||
			strings.Contains(lowerLine, "fatal") ||
			strings.Contains(lowerLine, "timeout") {
			candidates = append(candidates, line)
		}
	}

	if len(candidates) > 0 {
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}
		return strings.Join(candidates, " - ")
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}

	return "Unknown error."
}

// SanitizeErrorMessage strips credential material from an error before it is
// shown or logged.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return shared.SanitizeForLogging(err.Error())
}
