/* cmd/webhook/webhook.go */

package webhook

import (
	"fmt"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/cli"
	"github.com/steadyops/botstrap/pkg/interaction"
	"github.com/steadyops/botstrap/pkg/strap_cli"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_io"
	"github.com/steadyops/botstrap/pkg/telegram"
)

// WebhookCmd groups Telegram webhook management.
var WebhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Register the webhook URL with the Telegram Bot API",
	RunE: strap_cli.Wrap(func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(rc, cmd)
		if err != nil {
			return err
		}

		url, err := cli.GetRequiredString(cmd, "webhook-url")
		if err != nil {
			return strap_err.NewValidationError(err.Error(), "pass --webhook-url https://<domain>/webhook")
		}

		if err := client.SetWebhook(rc.Ctx, url); err != nil {
			return cerr.Wrap(err, "set webhook")
		}
		otelzap.Ctx(rc.Ctx).Info("Webhook registered", zap.String("url", url))
		return printInfo(rc, client)
	}),
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display the current webhook state",
	RunE: strap_cli.Wrap(func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(rc, cmd)
		if err != nil {
			return err
		}
		return printInfo(rc, client)
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the registered webhook",
	RunE: strap_cli.Wrap(func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(rc, cmd)
		if err != nil {
			return err
		}
		if err := client.DeleteWebhook(rc.Ctx); err != nil {
			return cerr.Wrap(err, "delete webhook")
		}
		otelzap.Ctx(rc.Ctx).Info("Webhook deleted")
		fmt.Fprintln(os.Stderr, "Webhook removed.")
		return nil
	}),
}

// clientFromFlags builds a Bot API client from --bot-token, the BOTSTRAP
// environment, or a non-echoing prompt.
func clientFromFlags(rc *strap_io.RuntimeContext, cmd *cobra.Command) (*telegram.Client, error) {
	v, err := cli.NewViper(cmd)
	if err != nil {
		return nil, cerr.Wrap(err, "bind flags")
	}

	token := v.GetString("bot-token")
	if token == "" {
		token, err = interaction.PromptSecret(rc, "Telegram bot token", "")
		if err != nil {
			return nil, err
		}
	}
	if token == "" {
		return nil, strap_err.NewValidationError("bot token is required",
			"pass --bot-token or set BOTSTRAP_BOT_TOKEN")
	}

	return telegram.NewClient(token, "")
}

func printInfo(rc *strap_io.RuntimeContext, client *telegram.Client) error {
	info, err := client.GetWebhookInfo(rc.Ctx)
	if err != nil {
		return cerr.Wrap(err, "get webhook info")
	}

	fmt.Fprintf(os.Stdout, "URL:              %s\n", info.URL)
	fmt.Fprintf(os.Stdout, "Pending updates:  %d\n", info.PendingUpdateCount)
	if info.IPAddress != "" {
		fmt.Fprintf(os.Stdout, "IP address:       %s\n", info.IPAddress)
	}
	if info.LastErrorMessage != "" {
		fmt.Fprintf(os.Stdout, "Last error:       %s\n", info.LastErrorMessage)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{setCmd, infoCmd, deleteCmd} {
		cli.AddStringFlag(c, "bot-token", "", "", "Telegram bot token (or BOTSTRAP_BOT_TOKEN)", false)
	}
	cli.AddStringFlag(setCmd, "webhook-url", "", "", "public webhook URL to register", false)

	WebhookCmd.AddCommand(setCmd, infoCmd, deleteCmd)
}
