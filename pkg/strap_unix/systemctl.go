// pkg/strap_unix/systemctl.go

package strap_unix

import (
	"context"
	"os/exec"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
)

// systemctl is-active exit codes, per systemctl(1).
const (
	exitActive   = 0
	exitInactive = 3
)

// ServiceActive reports whether a systemd unit is active. The exit code
// carries the answer, so a non-zero exit is a state, not an error; only
// systemctl itself being unrunnable is an error.
func ServiceActive(ctx context.Context, unit string) (bool, error) {
	out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"is-active", unit},
		Capture: true,
	})
	state := strings.TrimSpace(out)
	if err == nil {
		return state == "active", nil
	}

	var exitErr *exec.ExitError
	if cerr.As(err, &exitErr) && exitErr.ExitCode() == exitInactive {
		return false, nil
	}
	// Captured state still distinguishes "inactive" from a broken systemctl.
	if state != "" {
		return state == "active", nil
	}
	return false, cerr.Wrapf(err, "systemctl is-active %s", unit)
}

// ReloadService reloads a unit's configuration without restarting it.
func ReloadService(ctx context.Context, unit string) error {
	otelzap.Ctx(ctx).Info("Reloading service", zap.String("unit", unit))
	if err := execute.RunSimple(ctx, "systemctl", "reload", unit); err != nil {
		return cerr.Wrapf(err, "reload %s", unit)
	}
	return nil
}

