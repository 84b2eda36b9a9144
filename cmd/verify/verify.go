/* cmd/verify/verify.go */

package verify

import (
	"fmt"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/steadyops/botstrap/pkg/cli"
	"github.com/steadyops/botstrap/pkg/provision"
	"github.com/steadyops/botstrap/pkg/strap_cli"
	"github.com/steadyops/botstrap/pkg/strap_io"
	"github.com/steadyops/botstrap/pkg/verify"
)

// VerifyCmd runs the read-only diagnostic probes.
var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a provisioned host with read-only probes",
	Long: `Runs the ordered diagnostic checklist: binaries and versions, nginx
service and config, listening ports, vhost files, application directory,
secrets file (masked), pm2 process and logs, TLS certificate, outbound
Telegram/Supabase reachability, and firewall rules.

Never mutates the host. Exits non-zero exactly when at least one probe
fails; warnings alone keep the exit status at zero.`,
	RunE: strap_cli.Wrap(func(rc *strap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		v, err := cli.NewViper(cmd)
		if err != nil {
			return cerr.Wrap(err, "bind flags")
		}

		d := provision.Defaults()
		opts := verify.Options{
			Domain:      v.GetString("domain"),
			AppPort:     v.GetInt("port"),
			SiteName:    v.GetString("site-name"),
			AppDir:      v.GetString("app-dir"),
			ProcessName: v.GetString("process-name"),
			AppEntry:    d.AppEntry,
			SSL:         v.GetBool("ssl"),
			SupabaseURL: v.GetString("supabase-url"),
		}

		results := verify.RunAll(rc.Ctx, opts)

		if v.GetBool("json") {
			out, err := verify.RenderJSON(results)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, out)
		} else {
			fmt.Fprint(os.Stdout, verify.Render(results))
		}

		return verify.ExitError(results)
	}),
}

func init() {
	d := provision.Defaults()

	cli.AddStringFlag(VerifyCmd, "domain", "d", "", "domain name to check the certificate for", false)
	cli.AddIntFlag(VerifyCmd, "port", "p", d.AppPort, "local application port to probe")
	cli.AddStringFlag(VerifyCmd, "site-name", "", d.SiteName, "nginx site name to check", false)
	cli.AddStringFlag(VerifyCmd, "app-dir", "", d.AppDir, "application directory to inspect", false)
	cli.AddStringFlag(VerifyCmd, "process-name", "", d.ProcessName, "pm2 process name to check", false)
	cli.AddBoolFlag(VerifyCmd, "ssl", "", d.EnableSSL, "expect a TLS certificate and port 443")
	cli.AddStringFlag(VerifyCmd, "supabase-url", "", "", "Supabase project URL to probe", false)
	cli.AddBoolFlag(VerifyCmd, "json", "", false, "emit the report as JSON")
}
