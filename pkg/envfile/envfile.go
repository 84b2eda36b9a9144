// pkg/envfile/envfile.go
//
// The application's .env secrets file: key=value lines, owner-only
// permissions, atomic replacement, and a rewrite skip when the content
// already matches so re-provisioning an identical config touches nothing.

package envfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/shared"
)

// Render produces the file content for ordered key/value pairs. Values with
// newlines are rejected rather than quoted; nothing the pipeline writes
// legitimately spans lines.
func Render(pairs [][2]string) (string, error) {
	var sb strings.Builder
	for _, kv := range pairs {
		key, value := kv[0], kv[1]
		if key == "" {
			return "", cerr.New("empty key in env file")
		}
		if strings.ContainsAny(key, "=\n ") {
			return "", cerr.Newf("invalid env key %q", key)
		}
		if strings.Contains(value, "\n") {
			return "", cerr.Newf("value for %s contains a newline", key)
		}
		fmt.Fprintf(&sb, "%s=%s\n", key, value)
	}
	return sb.String(), nil
}

// Write installs content at path with 0600 permissions, atomically, skipping
// the write when an identical file is already in place. Reports whether the
// file changed.
func Write(ctx context.Context, path, content string) (bool, error) {
	log := otelzap.Ctx(ctx)

	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, []byte(content)) {
		// Content is already right; still enforce permissions in case an
		// earlier run or the operator loosened them.
		if err := os.Chmod(path, shared.FilePermOwnerReadWrite); err != nil {
			return false, cerr.Wrapf(err, "chmod %s", path)
		}
		log.Info("Secrets file already up to date", zap.String("path", path))
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, cerr.Wrapf(err, "read %s", path)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".env.tmp-*")
	if err != nil {
		return false, cerr.Wrap(err, "create temp env file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(shared.FilePermOwnerReadWrite); err != nil {
		tmp.Close()
		return false, cerr.Wrap(err, "chmod temp env file")
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return false, cerr.Wrap(err, "write temp env file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, cerr.Wrap(err, "sync temp env file")
	}
	if err := tmp.Close(); err != nil {
		return false, cerr.Wrap(err, "close temp env file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return false, cerr.Wrapf(err, "rename into %s", path)
	}

	log.Info("Secrets file written", zap.String("path", path))
	return true, nil
}

// Read parses an existing .env file into a map. Used to seed
// re-provisioning defaults and by the verifier's masked display; values are
// never logged here.
func Read(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, cerr.Wrapf(err, "parse %s", path)
	}
	return values, nil
}
