/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/cmd/provision"
	"github.com/steadyops/botstrap/cmd/verify"
	"github.com/steadyops/botstrap/cmd/webhook"
	"github.com/steadyops/botstrap/pkg/logger"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
)

// RootCmd is the base command for botstrap.
var RootCmd = &cobra.Command{
	Use:   "botstrap",
	Short: "Provision and verify a Telegram-webhook Node.js host",
	Long: `botstrap prepares an Ubuntu/Debian host to run a Telegram-webhook
Node.js application behind nginx, with optional TLS via certbot and process
supervision via pm2, and verifies such a host with a read-only report.`,
	Version:       shared.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.AddCommand(
		provision.ProvisionCmd,
		verify.VerifyCmd,
		webhook.WebhookCmd,
	)
}

// Execute runs the CLI and maps the outcome to a process exit code:
// 0 success, 1 general failure, 2 validation, 3 internal, 130 cancelled.
func Execute() {
	RegisterCommands()

	err := RootCmd.Execute()
	if err == nil {
		shared.SafeSync()
		return
	}

	log := logger.GetLogger()
	if strap_err.IsExpectedUserError(err) {
		// Operator-facing outcome: no stack trace, just the message.
		fmt.Fprintln(os.Stderr, strap_err.SanitizeErrorMessage(err))
		log.Info("Command ended with expected error", zap.String("error", strap_err.SanitizeErrorMessage(err)))
	} else {
		fmt.Fprintln(os.Stderr, "Error:", strap_err.SanitizeErrorMessage(err))
		log.Error("Command failed", zap.Error(err))
	}

	shared.SafeSync()
	os.Exit(strap_err.GetExitCode(err))
}
