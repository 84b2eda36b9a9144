// pkg/execute/recorder.go

package execute

import (
	"context"
	"strings"
	"sync"
)

// Recorder is an Executor for tests: it records every invocation and answers
// from a handler instead of running anything. Install with SetDefault and
// restore the previous executor afterwards.
type Recorder struct {
	mu    sync.Mutex
	calls []Options

	// Handler produces the fake output/error for a call. Nil means
	// success with empty output.
	Handler func(ctx context.Context, opts Options) (string, error)
}

func (r *Recorder) Run(ctx context.Context, opts Options) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, opts)
	r.mu.Unlock()

	if r.Handler != nil {
		return r.Handler(ctx, opts)
	}
	return "", nil
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Options, len(r.calls))
	copy(out, r.calls)
	return out
}

// CommandLines renders recorded calls as "cmd arg arg" strings for
// convenient assertions.
func (r *Recorder) CommandLines() []string {
	calls := r.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, strings.TrimSpace(c.Command+" "+strings.Join(c.Args, " ")))
	}
	return lines
}

// Saw reports whether any recorded command line contains the substring.
func (r *Recorder) Saw(substr string) bool {
	for _, line := range r.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
