// pkg/strap_unix/user.go

package strap_unix

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	cerr "github.com/cockroachdb/errors"
)

// Operator describes the non-root user who invoked the tool (via sudo) and
// who will own the application directory and the pm2 process list.
type Operator struct {
	Name string
	UID  int
	GID  int
	Home string
}

// InvokingOperator resolves the operator: SUDO_USER when running under sudo,
// otherwise the current user. Running the pipeline directly as root without
// sudo yields root itself, which is reported so the caller can warn.
func InvokingOperator() (*Operator, error) {
	name := os.Getenv("SUDO_USER")
	var u *user.User
	var err error

	if name != "" && name != "root" {
		u, err = user.Lookup(name)
	} else {
		u, err = user.Current()
	}
	if err != nil {
		return nil, cerr.Wrap(err, "resolve invoking user")
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, cerr.Wrapf(err, "parse uid %q", u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, cerr.Wrapf(err, "parse gid %q", u.Gid)
	}

	return &Operator{Name: u.Username, UID: uid, GID: gid, Home: u.HomeDir}, nil
}

// euid is a hook for tests.
var euid = os.Geteuid

// IsRoot reports whether the process runs with effective UID 0.
func IsRoot() bool {
	return euid() == 0
}

// CommandAs rewrites a command line to run as the operator via sudo when the
// process is root and the operator is a regular user; otherwise the command
// is returned unchanged. Commands acting on the operator's files or process
// list (npm install, pm2 start/save/logs) go through this so nothing in the
// operator's directory ends up root-owned.
func CommandAs(op *Operator, name string, args ...string) (string, []string) {
	if op == nil || op.Name == "root" || !IsRoot() {
		return name, args
	}
	return "sudo", append([]string{"-u", op.Name, name}, args...)
}

// ChownTree assigns ownership of path and everything under it to the
// operator.
func ChownTree(ctx context.Context, path string, op *Operator) error {
	return filepath.Walk(path, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := os.Chown(p, op.UID, op.GID); err != nil {
			return cerr.Wrapf(err, "chown %s", p)
		}
		return nil
	})
}
