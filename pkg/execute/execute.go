// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// systemExecutor is the real implementation: os/exec with structured
// logging, bounded timeouts, optional retries, and dry-run support. Shell
// interpretation never happens implicitly; callers that need a shell pass
// "bash" with explicit -c arguments.
type systemExecutor struct{}

func (s *systemExecutor) Run(ctx context.Context, opts Options) (string, error) {
	cmdStr := buildCommandString(opts.Command, opts.Args...)

	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := telemetry.Start(ctx, "execute.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", opts.Command),
		attribute.String("args", shared.SanitizeForLogging(strings.Join(opts.Args, " "))),
	)

	if opts.DryRun {
		log.Info("Dry run mode - command not executed", zap.String("command", shared.SanitizeForLogging(cmdStr)))
		return "", nil
	}

	log.Debug("Starting execution", zap.String("command", shared.SanitizeForLogging(cmdStr)))

	attempts := max(1, opts.Retries)

	var output string
	var err error

	for i := 1; i <= attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, defaultTimeout(opts.Timeout))

		cmd := exec.CommandContext(attemptCtx, opts.Command, opts.Args...)
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}

		var buf bytes.Buffer
		var writer io.Writer = &buf
		if opts.Stream {
			// Progress goes to stderr so stdout stays clean for reports.
			writer = io.MultiWriter(os.Stderr, &buf)
		}
		cmd.Stdout = writer
		cmd.Stderr = writer

		err = cmd.Run()
		cancel()
		output = buf.String()

		if err == nil {
			log.Debug("Execution succeeded", zap.String("command", shared.SanitizeForLogging(cmdStr)))
			break
		}

		summary := strap_err.ExtractSummary(shared.SanitizeForLogging(output), 2)
		span.RecordError(err)
		log.Warn("Execution failed",
			zap.Int("attempt", i),
			zap.String("command", shared.SanitizeForLogging(cmdStr)),
			zap.String("summary", summary),
			zap.Error(err),
		)

		if i < attempts {
			select {
			case <-ctx.Done():
				return output, cerr.Wrap(ctx.Err(), "execution cancelled")
			case <-time.After(opts.Delay):
			}
		}
	}

	if err != nil {
		return output, cerr.Wrapf(err, "command failed after %d attempts", attempts)
	}

	if opts.Capture {
		return output, nil
	}
	return "", nil
}
