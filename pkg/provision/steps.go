// pkg/provision/steps.go
//
// The ordered provisioning steps. Each step is idempotent: either its Check
// detects "already done" or the underlying tool is safe to re-run, which is
// also the recovery path after an interrupted run — run the pipeline again
// with the same configuration.

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/envfile"
	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/nginx"
	"github.com/steadyops/botstrap/pkg/nodejs"
	"github.com/steadyops/botstrap/pkg/platform"
	"github.com/steadyops/botstrap/pkg/pm2"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_unix"
	"github.com/steadyops/botstrap/pkg/telegram"
)

// Step is one pipeline stage. Check, when present, reports "already done"
// with a reason and lets the pipeline skip Action. BestEffort steps log a
// warning on failure and let the run continue; everything else is
// fail-fast.
type Step struct {
	Name       string
	Desc       string
	Check      func(ctx context.Context) (done bool, reason string)
	Action     func(ctx context.Context) error
	BestEffort bool
}

// BuildSteps assembles the pipeline for the resolved settings.
func BuildSteps(s *Settings) []Step {
	steps := []Step{
		{
			Name: "system-update",
			Desc: "refresh package index and upgrade installed packages",
			Action: func(ctx context.Context) error {
				if err := platform.AptUpdate(ctx); err != nil {
					return err
				}
				return platform.AptUpgrade(ctx)
			},
		},
		{
			Name:   "base-packages",
			Desc:   "install baseline and optional tool groups",
			Action: func(ctx context.Context) error { return installPackages(ctx, s) },
		},
		{
			Name: "node-runtime",
			Desc: fmt.Sprintf("install Node.js %d and pm2", s.NodeMajor),
			Action: func(ctx context.Context) error {
				if err := nodejs.EnsureMajor(ctx, s.NodeMajor); err != nil {
					return err
				}
				if ver, ok := pm2.Installed(ctx); ok {
					otelzap.Ctx(ctx).Info("pm2 already installed", zap.String("version", ver))
					return nil
				}
				return pm2.Install(ctx)
			},
		},
		{
			Name:       "pm2-startup",
			Desc:       "register pm2 to start at boot",
			BestEffort: true,
			Action: func(ctx context.Context) error {
				return pm2.RegisterStartup(ctx, s.Operator)
			},
		},
		{
			Name:       "firewall",
			Desc:       "allow SSH/HTTP/HTTPS and enable ufw if inactive",
			BestEffort: true,
			Action:     configureFirewall,
		},
		{
			Name:   "nginx-vhost",
			Desc:   fmt.Sprintf("install reverse-proxy vhost %s", s.SiteName),
			Action: func(ctx context.Context) error { return installVhost(ctx, s) },
		},
	}

	if s.EnableSSL {
		steps = append(steps, Step{
			Name:       "tls-certificate",
			Desc:       fmt.Sprintf("request TLS certificate for %s", s.Domain),
			BestEffort: true, // degrades gracefully to HTTP-only
			Action:     func(ctx context.Context) error { return requestCertificate(ctx, s) },
		})
	}

	steps = append(steps, Step{
		Name:   "application",
		Desc:   fmt.Sprintf("deploy and supervise %s", s.ProcessName),
		Action: func(ctx context.Context) error { return deployApplication(ctx, s) },
	})

	if s.SetWebhookNow {
		steps = append(steps, Step{
			Name:       "telegram-webhook",
			Desc:       "register webhook with the Telegram Bot API",
			BestEffort: true, // connectivity failures warn, never abort
			Action:     func(ctx context.Context) error { return registerWebhook(ctx, s) },
		})
	}

	return steps
}

var basePackages = []string{"curl", "git", "ca-certificates", "gnupg", "nginx", "ufw"}

// Optional tool groups, gated by flags. A disabled group installs nothing.
var (
	netToolPackages = []string{"net-tools", "dnsutils", "lsof", "traceroute"}
	devToolPackages = []string{"build-essential"}
)

func installPackages(ctx context.Context, s *Settings) error {
	packages := append([]string{}, basePackages...)
	if s.WithNetTools {
		packages = append(packages, netToolPackages...)
	}
	if s.WithDevTools {
		packages = append(packages, devToolPackages...)
	}
	return platform.AptInstall(ctx, packages...)
}

func configureFirewall(ctx context.Context) error {
	for _, rule := range []string{"OpenSSH", "80/tcp", "443/tcp"} {
		if err := platform.FirewallAllow(ctx, rule); err != nil {
			return err
		}
	}
	return platform.FirewallEnsureEnabled(ctx)
}

func installVhost(ctx context.Context, s *Settings) error {
	content, err := nginx.RenderVhost(ctx, nginx.VhostData{Domain: s.Domain, AppPort: s.AppPort})
	if err != nil {
		return err
	}
	if s.DryRun {
		otelzap.Ctx(ctx).Info("Dry run - vhost not installed",
			zap.String("path", nginx.AvailablePath(s.SiteName)))
		return nil
	}
	return nginx.InstallVhost(ctx, s.SiteName, content)
}

func requestCertificate(ctx context.Context, s *Settings) error {
	if _, ok := execute.LookPath("certbot"); !ok {
		if err := platform.AptInstall(ctx, "certbot", "python3-certbot-nginx"); err != nil {
			return err
		}
	}

	// One built-in retry: certificate issuance sees transient CA and DNS
	// hiccups, and a second attempt is cheap. Anything beyond that is for
	// the operator to investigate.
	_, err := execute.Run(ctx, execute.Options{
		Command: "certbot",
		Args: []string{
			"--nginx", "-d", s.Domain,
			"--non-interactive", "--agree-tos",
			"-m", s.AdminEmail, "--redirect",
		},
		Stream:  true,
		Retries: 2,
		Delay:   10 * time.Second,
		Timeout: 5 * time.Minute,
	})
	if err != nil {
		return cerr.Wrap(err, "certbot (continuing with HTTP only)")
	}
	return nil
}

func deployApplication(ctx context.Context, s *Settings) error {
	log := otelzap.Ctx(ctx)

	if s.DryRun {
		log.Info("Dry run - application deployment skipped", zap.String("dir", s.AppDir))
		return nil
	}

	if err := os.MkdirAll(s.AppDir, shared.DirPermStandard); err != nil {
		return cerr.Wrapf(err, "create app directory %s", s.AppDir)
	}
	if err := strap_unix.ChownTree(ctx, s.AppDir, s.Operator); err != nil {
		return err
	}

	content, err := envfile.Render([][2]string{
		{EnvKeyPort, fmt.Sprint(s.AppPort)},
		{EnvKeyWebhookURL, s.WebhookURL},
		{EnvKeyBotToken, s.BotToken},
		{EnvKeySupabaseURL, s.SupabaseURL},
		{EnvKeySupabaseKey, s.SupabaseKey},
	})
	if err != nil {
		return err
	}
	envPath := filepath.Join(s.AppDir, EnvFileName)
	if _, err := envfile.Write(ctx, envPath, content); err != nil {
		return err
	}
	if err := os.Chown(envPath, s.Operator.UID, s.Operator.GID); err != nil {
		return cerr.Wrapf(err, "chown %s", envPath)
	}

	if _, err := os.Stat(filepath.Join(s.AppDir, "package.json")); err == nil {
		log.Info("Installing application dependencies", zap.String("dir", s.AppDir))
		// As the operator, so node_modules is not root-owned inside the
		// operator's directory.
		npmCmd, npmArgs := strap_unix.CommandAs(s.Operator, "npm", "install", "--omit=dev")
		_, err := execute.Run(ctx, execute.Options{
			Command: npmCmd,
			Args:    npmArgs,
			Dir:     s.AppDir,
			Stream:  true,
			Timeout: 10 * time.Minute,
		})
		if err != nil {
			return cerr.Wrap(err, "npm install")
		}
	} else {
		log.Warn("No package.json in app directory; skipping npm install",
			zap.String("dir", s.AppDir))
	}

	if err := pm2.StartOrRestart(ctx, s.Operator, s.ProcessName, s.AppDir, s.AppEntry); err != nil {
		return err
	}
	return pm2.Save(ctx, s.Operator)
}

func registerWebhook(ctx context.Context, s *Settings) error {
	log := otelzap.Ctx(ctx)

	// This step mutates external state over HTTP, not through the command
	// executor, so the dry-run gate lives here.
	if s.DryRun {
		log.Info("Dry run - webhook not registered", zap.String("url", s.WebhookURL))
		return nil
	}

	client, err := telegram.NewClient(s.BotToken, "")
	if err != nil {
		return err
	}

	if err := client.SetWebhook(ctx, s.WebhookURL); err != nil {
		return err
	}
	log.Info("Webhook registered", zap.String("url", s.WebhookURL))

	info, err := client.GetWebhookInfo(ctx)
	if err != nil {
		return err
	}
	log.Info("Current webhook state",
		zap.String("url", info.URL),
		zap.Int("pending_updates", info.PendingUpdateCount),
		zap.String("last_error", info.LastErrorMessage),
	)
	fmt.Fprintf(os.Stderr, "Webhook: %s (pending updates: %d)\n", info.URL, info.PendingUpdateCount)
	return nil
}
