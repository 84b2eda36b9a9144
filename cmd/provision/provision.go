/* cmd/provision/provision.go */

package provision

import (
	"github.com/spf13/cobra"

	"github.com/steadyops/botstrap/pkg/cli"
	"github.com/steadyops/botstrap/pkg/provision"
	"github.com/steadyops/botstrap/pkg/strap_cli"
	"github.com/steadyops/botstrap/pkg/strap_io"
)

// ProvisionCmd runs the provisioning pipeline.
var ProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision this host for the Telegram bot application",
	Long: `Runs the ordered provisioning pipeline: system update, baseline packages,
Node.js and pm2, firewall, nginx reverse-proxy vhost, optional TLS via
certbot, application deployment under pm2, and optional Telegram webhook
registration. Every step is idempotent; re-running with the same
configuration is safe and is the recovery path after an interruption.

Must run as root (sudo). Settings resolve from defaults, the app's existing
.env, BOTSTRAP_* environment variables, flags, and interactive prompts, in
that order; nothing is mutated before the confirmation summary is accepted.`,
	RunE: strap_cli.Wrap(func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		settings, err := provision.Resolve(rc, cmd)
		if err != nil {
			return err
		}
		return provision.Run(rc, settings)
	}),
}

func init() {
	d := provision.Defaults()

	cli.AddStringFlag(ProvisionCmd, "domain", "d", "", "public domain name for the bot (e.g. bot.example.com)", false)
	cli.AddIntFlag(ProvisionCmd, "port", "p", d.AppPort, "local port the Node.js app listens on")
	cli.AddStringFlag(ProvisionCmd, "site-name", "", d.SiteName, "nginx site name under sites-available", false)
	cli.AddStringFlag(ProvisionCmd, "app-dir", "", d.AppDir, "application directory", false)
	cli.AddStringFlag(ProvisionCmd, "process-name", "", d.ProcessName, "pm2 process name", false)
	cli.AddStringFlag(ProvisionCmd, "app-entry", "", d.AppEntry, "application entry file", false)
	cli.AddBoolFlag(ProvisionCmd, "ssl", "", d.EnableSSL, "request a TLS certificate via certbot")
	cli.AddStringFlag(ProvisionCmd, "email", "m", "", "admin email for certbot registration", false)
	cli.AddStringFlag(ProvisionCmd, "webhook-url", "", "", "public webhook URL (default https://<domain>/webhook)", false)
	cli.AddStringFlag(ProvisionCmd, "bot-token", "", "", "Telegram bot token (prefer BOTSTRAP_BOT_TOKEN or the prompt)", false)
	cli.AddStringFlag(ProvisionCmd, "supabase-url", "", "", "Supabase project URL", false)
	cli.AddStringFlag(ProvisionCmd, "supabase-key", "", "", "Supabase service key (prefer BOTSTRAP_SUPABASE_KEY or the prompt)", false)
	cli.AddBoolFlag(ProvisionCmd, "set-webhook", "", false, "register the webhook with Telegram after deployment")
	cli.AddIntFlag(ProvisionCmd, "node-major", "", d.NodeMajor, "Node.js major version to install")
	cli.AddBoolFlag(ProvisionCmd, "net-tools", "", false, "install networking diagnostic tools")
	cli.AddBoolFlag(ProvisionCmd, "dev-tools", "", false, "install the build-essential toolchain")
	cli.AddBoolFlag(ProvisionCmd, "yes", "y", false, "accept all defaults, no prompts")
	cli.AddBoolFlag(ProvisionCmd, "dry-run", "", false, "log external commands instead of executing them")
}
