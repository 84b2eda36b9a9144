// pkg/platform/apt.go

package platform

import (
	"context"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
)

// apt runs can legitimately take a long time on a fresh host.
const aptTimeout = 15 * time.Minute

var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// AptUpdate refreshes the package index. Always safe to re-run.
func AptUpdate(ctx context.Context) error {
	otelzap.Ctx(ctx).Info("Refreshing apt package index")
	_, err := execute.Run(ctx, execute.Options{
		Command: "apt-get",
		Args:    []string{"update"},
		Env:     aptEnv,
		Stream:  true,
		Timeout: aptTimeout,
	})
	if err != nil {
		return cerr.Wrap(err, "apt-get update")
	}
	return nil
}

// AptUpgrade upgrades installed packages non-interactively.
func AptUpgrade(ctx context.Context) error {
	otelzap.Ctx(ctx).Info("Upgrading installed packages")
	_, err := execute.Run(ctx, execute.Options{
		Command: "apt-get",
		Args:    []string{"upgrade", "-y"},
		Env:     aptEnv,
		Stream:  true,
		Timeout: aptTimeout,
	})
	if err != nil {
		return cerr.Wrap(err, "apt-get upgrade")
	}
	return nil
}

// AptInstall installs the named packages. apt treats already-installed
// packages as a no-op, so re-running an install is idempotent by
// construction. Calling with no packages does nothing.
func AptInstall(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}

	otelzap.Ctx(ctx).Info("Installing packages", zap.Strings("packages", packages))
	_, err := execute.Run(ctx, execute.Options{
		Command: "apt-get",
		Args:    append([]string{"install", "-y"}, packages...),
		Env:     aptEnv,
		Stream:  true,
		Timeout: aptTimeout,
	})
	if err != nil {
		return cerr.Wrapf(err, "apt-get install %v", packages)
	}
	return nil
}
