// pkg/strap_cli/wrap.go

package strap_cli

import (
	"os"
	"os/signal"
	"syscall"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/steadyops/botstrap/pkg/logger"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_io"
)

// Wrap adapts a RuntimeContext-style handler to a cobra RunE, adding panic
// recovery, start/end logging with duration, interrupt cancellation, and
// stack traces on unexpected errors only.
func Wrap(fn func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.InitFallback()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rc := strap_io.NewContext(ctx, cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		err = fn(rc, cmd, args)
		if err != nil && !strap_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
