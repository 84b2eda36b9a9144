// pkg/pm2/pm2.go
//
// PM2 process supervisor operations. Mutating commands that should act on
// the operator's process list (start, restart, save, logs) run as the
// operator via sudo -u; installation and boot registration stay root.

package pm2

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

// Process is the subset of a `pm2 jlist` entry the pipeline and verifier
// care about.
type Process struct {
	Name   string `json:"name"`
	PMID   int    `json:"pm_id"`
	Status string
}

// jlistEntry mirrors pm2's JSON shape; status hides under pm2_env.
type jlistEntry struct {
	Name   string `json:"name"`
	PMID   int    `json:"pm_id"`
	PM2Env struct {
		Status string `json:"status"`
	} `json:"pm2_env"`
}

// Installed reports whether the pm2 binary answers, with its version.
func Installed(ctx context.Context) (string, bool) {
	if _, ok := execute.LookPath("pm2"); !ok {
		return "", false
	}
	out, err := execute.Run(ctx, execute.Options{
		Command: "pm2",
		Args:    []string{"-v"},
		Capture: true,
	})
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// Install installs pm2 globally via npm. Skipped by the caller when
// Installed already answers.
func Install(ctx context.Context) error {
	otelzap.Ctx(ctx).Info("Installing pm2 globally")
	_, err := execute.Run(ctx, execute.Options{
		Command: "npm",
		Args:    []string{"install", "-g", "pm2"},
		Stream:  true,
		Timeout: 10 * time.Minute,
	})
	if err != nil {
		return cerr.Wrap(err, "npm install -g pm2")
	}
	return nil
}

// RegisterStartup wires pm2's process list into systemd for the operator so
// supervised processes survive a reboot.
func RegisterStartup(ctx context.Context, op *strap_unix.Operator) error {
	otelzap.Ctx(ctx).Info("Registering pm2 startup", zap.String("user", op.Name))
	_, err := execute.Run(ctx, execute.Options{
		Command: "pm2",
		Args:    []string{"startup", "systemd", "-u", op.Name, "--hp", op.Home},
		Capture: true,
	})
	if err != nil {
		return cerr.Wrap(err, "pm2 startup")
	}
	return nil
}

// List parses `pm2 jlist` for the operator into processes.
func List(ctx context.Context, op *strap_unix.Operator) ([]Process, error) {
	out, err := runAs(ctx, op, "pm2", "jlist")
	if err != nil {
		return nil, cerr.Wrap(err, "pm2 jlist")
	}
	return ParseJList(out)
}

// ParseJList decodes pm2's jlist JSON. pm2 sometimes prefixes the JSON with
// update notices, so parsing starts at the first bracket.
func ParseJList(out string) ([]Process, error) {
	idx := strings.Index(out, "[")
	if idx < 0 {
		return nil, cerr.Newf("no JSON array in pm2 jlist output")
	}

	var entries []jlistEntry
	if err := json.Unmarshal([]byte(out[idx:]), &entries); err != nil {
		return nil, cerr.Wrap(err, "decode pm2 jlist")
	}

	procs := make([]Process, 0, len(entries))
	for _, e := range entries {
		procs = append(procs, Process{Name: e.Name, PMID: e.PMID, Status: e.PM2Env.Status})
	}
	return procs, nil
}

// Find returns the named process from a jlist, or nil.
func Find(procs []Process, name string) *Process {
	for i := range procs {
		if procs[i].Name == name {
			return &procs[i]
		}
	}
	return nil
}

// StartOrRestart restarts the named process when pm2 already knows it,
// otherwise starts the entry file under that name from appDir.
func StartOrRestart(ctx context.Context, op *strap_unix.Operator, name, appDir, entry string) error {
	log := otelzap.Ctx(ctx)

	procs, err := List(ctx, op)
	if err != nil {
		log.Warn("Could not read pm2 process list, attempting fresh start", zap.Error(err))
	}

	if Find(procs, name) != nil {
		log.Info("Restarting supervised process", zap.String("name", name))
		if _, err := runAs(ctx, op, "pm2", "restart", name); err != nil {
			return cerr.Wrapf(err, "pm2 restart %s", name)
		}
		return nil
	}

	log.Info("Starting supervised process",
		zap.String("name", name), zap.String("entry", entry), zap.String("dir", appDir))
	if _, err := runAsIn(ctx, op, appDir, "pm2", "start", entry, "--name", name); err != nil {
		return cerr.Wrapf(err, "pm2 start %s", entry)
	}
	return nil
}

// Save persists the operator's process list for resurrection at boot.
func Save(ctx context.Context, op *strap_unix.Operator) error {
	if _, err := runAs(ctx, op, "pm2", "save"); err != nil {
		return cerr.Wrap(err, "pm2 save")
	}
	return nil
}

// LogTail returns the last lines of the named process's logs without
// following.
func LogTail(ctx context.Context, op *strap_unix.Operator, name string, lines int) (string, error) {
	out, err := runAs(ctx, op, "pm2", "logs", name, "--lines", fmt.Sprint(lines), "--nostream")
	if err != nil {
		return "", cerr.Wrapf(err, "pm2 logs %s", name)
	}
	return out, nil
}

func runAs(ctx context.Context, op *strap_unix.Operator, name string, args ...string) (string, error) {
	return runAsIn(ctx, op, "", name, args...)
}

func runAsIn(ctx context.Context, op *strap_unix.Operator, dir, name string, args ...string) (string, error) {
	cmd, cmdArgs := strap_unix.CommandAs(op, name, args...)
	return execute.Run(ctx, execute.Options{Command: cmd, Args: cmdArgs, Dir: dir, Capture: true})
}
