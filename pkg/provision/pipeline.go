// pkg/provision/pipeline.go

package provision

import (
	"context"
	"fmt"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/strap_io"
)

// dryRunExecutor marks every command as dry-run before delegating, so the
// underlying executor logs the command line and runs nothing.
type dryRunExecutor struct {
	next execute.Executor
}

func (d *dryRunExecutor) Run(ctx context.Context, opts execute.Options) (string, error) {
	opts.DryRun = true
	return d.next.Run(ctx, opts)
}

func dryRunWrap(next execute.Executor) execute.Executor {
	return &dryRunExecutor{next: next}
}

// Run executes the pipeline: preflight, then every step in order. Steps run
// strictly in sequence; a failing step aborts the run unless it is marked
// best-effort, in which case the failure is logged and the pipeline
// continues. Completed best-effort steps are never rolled back.
func Run(rc *strap_io.RuntimeContext, s *Settings) error {
	log := otelzap.Ctx(rc.Ctx)

	if err := Preflight(rc.Ctx); err != nil {
		return err
	}

	if s.DryRun {
		prev := execute.Default()
		execute.SetDefault(dryRunWrap(prev))
		defer execute.SetDefault(prev)
		log.Info("Dry run: external commands are logged, not executed")
	}

	return runSteps(rc, BuildSteps(s))
}

// runSteps drives an ordered step list with the pipeline's failure
// semantics.
func runSteps(rc *strap_io.RuntimeContext, steps []Step) error {
	log := otelzap.Ctx(rc.Ctx)

	for i, step := range steps {
		marker := fmt.Sprintf("[%d/%d]", i+1, len(steps))
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", marker, step.Name, step.Desc)
		log.Info("Step starting",
			zap.String("step", step.Name), zap.Int("index", i+1), zap.Int("total", len(steps)))

		if step.Check != nil {
			if done, reason := step.Check(rc.Ctx); done {
				fmt.Fprintf(os.Stderr, "%s %s: already done (%s)\n", marker, step.Name, reason)
				log.Info("Step skipped", zap.String("step", step.Name), zap.String("reason", reason))
				continue
			}
		}

		if err := step.Action(rc.Ctx); err != nil {
			if rc.Ctx.Err() != nil {
				// Operator interrupt: stop immediately regardless of
				// severity. Re-running the pipeline is the recovery path.
				return cerr.Wrapf(rc.Ctx.Err(), "pipeline interrupted during %s", step.Name)
			}
			if step.BestEffort {
				fmt.Fprintf(os.Stderr, "%s %s: WARNING - %v (continuing)\n", marker, step.Name, err)
				log.Warn("Best-effort step failed, continuing",
					zap.String("step", step.Name), zap.Error(err))
				continue
			}
			fmt.Fprintf(os.Stderr, "%s %s: FAILED\n", marker, step.Name)
			return cerr.Wrapf(err, "step %s failed", step.Name)
		}

		log.Info("Step completed", zap.String("step", step.Name))
	}

	fmt.Fprintln(os.Stderr, "Provisioning complete.")
	log.Info("Pipeline finished", zap.Int("steps", len(steps)))
	return nil
}
