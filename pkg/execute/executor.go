// pkg/execute/executor.go

package execute

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options describes one external command invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	// Env entries are appended to the inherited environment.
	Env []string
	// Capture returns the combined output to the caller; otherwise Run
	// returns "".
	Capture bool
	// Stream mirrors combined output to stderr while it is produced, for
	// long-running tools like apt and npm whose progress the operator
	// should see. Output is captured either way.
	Stream  bool
	DryRun  bool
	Retries int
	Delay   time.Duration
	// Timeout bounds a single attempt; zero means the 30s default.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Executor runs external commands. The package-level default is the real
// system executor; tests swap in a recorder or fake via SetDefault.
type Executor interface {
	Run(ctx context.Context, opts Options) (string, error)
}

var (
	defaultMu   sync.RWMutex
	defaultExec Executor = &systemExecutor{}
)

// Default returns the current package-level executor.
func Default() Executor {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultExec
}

// SetDefault replaces the package-level executor and returns the previous
// one so tests can restore it.
func SetDefault(e Executor) Executor {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultExec
	defaultExec = e
	return prev
}

// Run executes a command through the current default executor.
func Run(ctx context.Context, opts Options) (string, error) {
	return Default().Run(ctx, opts)
}

// RunSimple executes a command discarding output.
func RunSimple(ctx context.Context, cmd string, args ...string) error {
	_, err := Run(ctx, Options{
		Command: cmd,
		Args:    args,
	})
	return err
}
