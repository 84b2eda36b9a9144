// pkg/provision/preflight.go

package provision

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

// Preflight verifies the host can run the pipeline at all: root privileges
// and the two tools every step leans on. Failures here are fatal and carry
// an install hint; nothing has been mutated yet.
func Preflight(ctx context.Context) error {
	log := otelzap.Ctx(ctx)

	if !strap_unix.IsRoot() {
		return strap_err.NewValidationError(
			"provisioning requires root privileges",
			"re-run with: sudo botstrap provision")
	}

	required := []struct {
		binary string
		hint   string
	}{
		{"apt-get", "botstrap supports Debian-family hosts; apt-get must be on PATH"},
		{"systemctl", "botstrap requires systemd; install or use a systemd-based distribution"},
	}

	for _, dep := range required {
		if _, ok := execute.LookPath(dep.binary); !ok {
			return strap_err.NewDependencyError(dep.binary, "provisioning", dep.hint)
		}
		log.Debug("Preflight dependency present", zap.String("binary", dep.binary))
	}

	return nil
}
