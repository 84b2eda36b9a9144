// pkg/nodejs/nodejs.go
//
// Node.js runtime installation via the NodeSource apt repository. The setup
// script is the vendor's supported install path on Debian-family hosts, so
// it runs through an explicit bash -c the way the reference provisioners
// drive it.

package nodejs

import (
	"context"
	"fmt"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-version"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/platform"
)

const nodesourceURL = "https://deb.nodesource.com/setup_%d.x"

// InstalledVersion returns the running node version, or nil when node is not
// installed or does not answer.
func InstalledVersion(ctx context.Context) (*version.Version, error) {
	if _, ok := execute.LookPath("node"); !ok {
		return nil, nil
	}

	out, err := execute.Run(ctx, execute.Options{
		Command: "node",
		Args:    []string{"-v"},
		Capture: true,
	})
	if err != nil {
		return nil, cerr.Wrap(err, "node -v")
	}

	return ParseVersion(out)
}

// ParseVersion parses `node -v` output ("v22.14.0\n") into a version.
func ParseVersion(out string) (*version.Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(out), "v")
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, cerr.Wrapf(err, "parse node version %q", raw)
	}
	return v, nil
}

// EnsureMajor installs Node.js at the given major version unless the
// installed major already matches; a different installed major is upgraded
// in place through the same NodeSource path.
func EnsureMajor(ctx context.Context, major int) error {
	log := otelzap.Ctx(ctx)

	installed, err := InstalledVersion(ctx)
	if err != nil {
		log.Warn("Could not determine installed node version, reinstalling", zap.Error(err))
	}
	if installed != nil && installed.Segments()[0] == major {
		log.Info("Node.js already at requested major version",
			zap.String("installed", installed.Original()), zap.Int("requested_major", major))
		return nil
	}
	if installed != nil {
		log.Info("Node.js major version differs, upgrading",
			zap.String("installed", installed.Original()), zap.Int("requested_major", major))
	}

	setup := fmt.Sprintf("curl -fsSL %s | bash -", fmt.Sprintf(nodesourceURL, major))
	_, err = execute.Run(ctx, execute.Options{
		Command: "bash",
		Args:    []string{"-c", setup},
		Stream:  true,
		Timeout: 10 * time.Minute,
	})
	if err != nil {
		return cerr.Wrap(err, "NodeSource setup script")
	}

	if err := platform.AptInstall(ctx, "nodejs"); err != nil {
		return cerr.Wrap(err, "install nodejs")
	}
	return nil
}
