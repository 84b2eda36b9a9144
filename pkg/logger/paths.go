/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	cerr "github.com/cockroachdb/errors"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/xdg"
	"go.uber.org/zap/zapcore"
)

// PlatformLogPaths returns candidate log paths in priority order. The system
// path wins when writable (provisioning runs as root); the XDG state dir
// covers unprivileged verify runs; the working directory is the dev fallback.
func PlatformLogPaths() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{
			shared.Logs,
			xdg.StatePath(shared.AppID, "botstrap.log"),
			shared.LogsPWD,
			"/tmp/botstrap/botstrap.log",
		}
	case "darwin":
		return []string{
			xdg.StatePath(shared.AppID, "botstrap.log"),
			shared.LogsPWD,
			"/tmp/botstrap/botstrap.log",
		}
	default:
		return []string{shared.LogsPWD}
	}
}

// FindWritableLogPath returns the first candidate path that can be opened for
// appending.
func FindWritableLogPath() (string, error) {
	for _, path := range PlatformLogPaths() {
		if err := ensureLogFile(path); err == nil {
			return path, nil
		}
	}
	return "", cerr.New("no writable log path found")
}

// GetLogFileWriter opens path for appending with owner-only permissions.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	if err := ensureLogFile(path); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, shared.FilePermOwnerReadWrite)
	if err != nil {
		return nil, cerr.Wrap(err, "open log file")
	}

	return zapcore.AddSync(file), nil
}

func ensureLogFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, shared.DirPermOwnerOnly); err != nil {
		return cerr.Wrapf(err, "create log directory %s", dir)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, shared.FilePermOwnerReadWrite)
	if err != nil {
		return cerr.Wrapf(err, "open log file %s", path)
	}
	return file.Close()
}
