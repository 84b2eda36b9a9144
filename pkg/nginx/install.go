// pkg/nginx/install.go
//
// Vhost installation with the previous-config-preserved guarantee: the
// rendered file lands atomically, the global configuration is validated with
// `nginx -t` before any reload, and a failed validation restores whatever
// was in place before so nginx keeps serving the last good config.

package nginx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

// Overridable in tests; the real layout on Debian-family hosts.
var (
	SitesAvailableDir = "/etc/nginx/sites-available"
	SitesEnabledDir   = "/etc/nginx/sites-enabled"
)

// AvailablePath returns the sites-available path for a site name.
func AvailablePath(site string) string {
	return filepath.Join(SitesAvailableDir, site)
}

// EnabledPath returns the sites-enabled path for a site name.
func EnabledPath(site string) string {
	return filepath.Join(SitesEnabledDir, site)
}

// InstallVhost writes the rendered vhost for site, enables it, validates the
// global config, and reloads nginx. Re-running with identical content is a
// no-op apart from the symlink check. On validation failure the incumbent
// file is restored (or the new file removed when there was none), no reload
// happens, and a config error is returned.
func InstallVhost(ctx context.Context, site, content string) error {
	log := otelzap.Ctx(ctx)
	target := AvailablePath(site)

	incumbent, hadIncumbent, err := readIncumbent(target)
	if err != nil {
		return err
	}

	if hadIncumbent && bytes.Equal(incumbent, []byte(content)) {
		log.Info("Vhost already up to date", zap.String("site", site))
		return ensureEnabled(ctx, site)
	}

	if err := writeAtomic(target, []byte(content)); err != nil {
		return cerr.Wrapf(err, "install vhost %s", site)
	}
	log.Info("Vhost installed", zap.String("path", target))

	if err := ensureEnabled(ctx, site); err != nil {
		return err
	}

	if err := Validate(ctx); err != nil {
		// Put back whatever nginx was serving before; never reload on a
		// config that failed validation.
		if hadIncumbent {
			if restoreErr := writeAtomic(target, incumbent); restoreErr != nil {
				log.Error("Failed to restore previous vhost",
					zap.String("path", target), zap.Error(restoreErr))
			} else {
				log.Warn("Validation failed, previous vhost restored", zap.String("site", site))
			}
		} else {
			if rmErr := os.Remove(target); rmErr != nil {
				log.Error("Failed to remove invalid vhost",
					zap.String("path", target), zap.Error(rmErr))
			}
			if rmErr := os.Remove(EnabledPath(site)); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Error("Failed to remove vhost symlink",
					zap.String("path", EnabledPath(site)), zap.Error(rmErr))
			}
		}
		return strap_err.NewConfigError("nginx configuration validation failed", err,
			"inspect the rendered vhost with: nginx -t",
			"the previously active configuration remains in effect")
	}

	return strap_unix.ReloadService(ctx, "nginx")
}

// Validate runs `nginx -t` against the full configuration.
func Validate(ctx context.Context) error {
	out, err := execute.Run(ctx, execute.Options{
		Command: "nginx",
		Args:    []string{"-t"},
		Capture: true,
	})
	if err != nil {
		return cerr.Wrapf(err, "nginx -t: %s", strap_err.ExtractSummary(out, 2))
	}
	return nil
}

func readIncumbent(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, cerr.Wrapf(err, "read existing vhost %s", path)
	}
	return data, true, nil
}

// writeAtomic renders to a temp file in the target directory, fsyncs, and
// renames into place so a concurrent nginx reload never sees a partial file.
func writeAtomic(target string, content []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return cerr.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return cerr.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpName, shared.FilePermStandard); err != nil {
		return cerr.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpName, target); err != nil {
		return cerr.Wrapf(err, "rename into %s", target)
	}
	return nil
}

// ensureEnabled creates the sites-enabled symlink when missing. An existing
// symlink pointing elsewhere is replaced; a regular file is left alone and
// reported, since overwriting operator-managed files is not our call.
func ensureEnabled(ctx context.Context, site string) error {
	link := EnabledPath(site)
	target := AvailablePath(site)

	existing, err := os.Lstat(link)
	if err == nil {
		if existing.Mode()&os.ModeSymlink == 0 {
			return cerr.Newf("%s exists and is not a symlink; refusing to replace it", link)
		}
		dest, err := os.Readlink(link)
		if err == nil && dest == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return cerr.Wrapf(err, "remove stale symlink %s", link)
		}
	} else if !os.IsNotExist(err) {
		return cerr.Wrapf(err, "stat %s", link)
	}

	if err := os.Symlink(target, link); err != nil {
		return cerr.Wrapf(err, "enable vhost %s", site)
	}
	otelzap.Ctx(ctx).Info("Vhost enabled", zap.String("link", link))
	return nil
}
