// pkg/provision/resolve.go
//
// Layered configuration resolution: hard-coded defaults, then the app's
// existing .env (so a re-run offers the live values), then BOTSTRAP_*
// environment variables, then explicit flags, then interactive prompts.
// Resolved once into an immutable Settings before any mutation begins.

package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/steadyops/botstrap/pkg/cli"
	"github.com/steadyops/botstrap/pkg/envfile"
	"github.com/steadyops/botstrap/pkg/interaction"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_io"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

// EnvFileName is the application's secrets file inside AppDir.
const EnvFileName = ".env"

// Keys written to (and re-read from) the application's .env.
const (
	EnvKeyPort        = "PORT"
	EnvKeyWebhookURL  = "WEBHOOK_URL"
	EnvKeyBotToken    = "TELEGRAM_BOT_TOKEN"
	EnvKeySupabaseURL = "SUPABASE_URL"
	EnvKeySupabaseKey = "SUPABASE_KEY"
)

// Resolve builds the Settings for one pipeline run, validates them, shows
// the summary, and asks for confirmation. Declining aborts with no side
// effects. Never silently coerces invalid input.
func Resolve(rc *strap_io.RuntimeContext, cmd *cobra.Command) (*Settings, error) {
	log := otelzap.Ctx(rc.Ctx)

	v, err := cli.NewViper(cmd)
	if err != nil {
		return nil, cerr.Wrap(err, "bind flags")
	}

	s := Defaults()
	s.Yes = v.GetBool("yes")
	s.DryRun = v.GetBool("dry-run")

	applyLayers(cmd, v, &s, rc.Log)

	interactive := !s.Yes && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		if err := promptMissing(rc, cmd, &s); err != nil {
			if cerr.HasType(err, &strap_err.ClassifiedError{}) || strap_err.IsExpectedUserError(err) {
				return nil, err
			}
			return nil, strap_err.NewValidationError(err.Error(),
				"re-run and enter a valid value, or pass the setting via --flag")
		}
	}

	if err := s.Validate(); err != nil {
		return nil, strap_err.NewValidationError(
			fmt.Sprintf("invalid provisioning configuration:\n%v", err),
			"fix the listed values and run again",
			"every setting can be supplied via --flag or BOTSTRAP_* environment variable")
	}

	op, err := strap_unix.InvokingOperator()
	if err != nil {
		return nil, err
	}
	if op.Name == "root" {
		log.Warn("No non-root invoking user found; the app will run as root. Prefer sudo from a regular account.")
	}
	s.Operator = op

	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, s.Summary())
	fmt.Fprintln(os.Stderr)

	if !s.Yes {
		ok, err := interaction.PromptYesNo(rc, "Proceed with provisioning?", false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, strap_err.NewUserCancelledError("provisioning declined at confirmation")
		}
	}

	return &s, nil
}

// applyLayers folds the .env seed, environment, and flags into s, in that
// order. Flags win over environment, environment over the .env seed, the
// seed over defaults.
func applyLayers(cmd *cobra.Command, v *viper.Viper, s *Settings, log *zap.Logger) {
	// The app dir itself can come from env/flags, so settle it first.
	s.AppDir = stringLayer(cmd, v, "app-dir", s.AppDir)

	seedFromEnvFile(s, log)

	s.Domain = stringLayer(cmd, v, "domain", s.Domain)
	s.AppPort = intLayer(cmd, v, "port", s.AppPort)
	s.SiteName = stringLayer(cmd, v, "site-name", s.SiteName)
	s.ProcessName = stringLayer(cmd, v, "process-name", s.ProcessName)
	s.AppEntry = stringLayer(cmd, v, "app-entry", s.AppEntry)
	s.EnableSSL = boolLayer(cmd, v, "ssl", s.EnableSSL)
	s.AdminEmail = stringLayer(cmd, v, "email", s.AdminEmail)
	s.WebhookURL = stringLayer(cmd, v, "webhook-url", s.WebhookURL)
	s.BotToken = stringLayer(cmd, v, "bot-token", s.BotToken)
	s.SupabaseURL = stringLayer(cmd, v, "supabase-url", s.SupabaseURL)
	s.SupabaseKey = stringLayer(cmd, v, "supabase-key", s.SupabaseKey)
	s.SetWebhookNow = boolLayer(cmd, v, "set-webhook", s.SetWebhookNow)
	s.NodeMajor = intLayer(cmd, v, "node-major", s.NodeMajor)
	s.WithNetTools = boolLayer(cmd, v, "net-tools", s.WithNetTools)
	s.WithDevTools = boolLayer(cmd, v, "dev-tools", s.WithDevTools)

	if s.WebhookURL == "" && s.Domain != "" {
		s.WebhookURL = "https://" + s.Domain + "/webhook"
	}
}

// seedFromEnvFile loads the app's current .env, if any, so re-provisioning
// offers the live values as defaults.
func seedFromEnvFile(s *Settings, log *zap.Logger) {
	path := filepath.Join(s.AppDir, EnvFileName)
	values, err := envfile.Read(path)
	if err != nil {
		if !os.IsNotExist(cerr.UnwrapAll(err)) {
			log.Debug("No usable existing .env", zap.String("path", path), zap.Error(err))
		}
		return
	}

	log.Info("Seeding defaults from existing .env", zap.String("path", path))
	if p, err := strconv.Atoi(values[EnvKeyPort]); err == nil {
		s.AppPort = p
	}
	if v := values[EnvKeyWebhookURL]; v != "" {
		s.WebhookURL = v
	}
	if v := values[EnvKeyBotToken]; v != "" {
		s.BotToken = v
	}
	if v := values[EnvKeySupabaseURL]; v != "" {
		s.SupabaseURL = v
	}
	if v := values[EnvKeySupabaseKey]; v != "" {
		s.SupabaseKey = v
	}
}

// promptMissing walks the interactive prompts with current values as shown
// defaults; entering nothing accepts the default. Secrets use a non-echoing
// read.
func promptMissing(rc *strap_io.RuntimeContext, cmd *cobra.Command, s *Settings) error {
	var err error

	if !cmd.Flags().Changed("domain") {
		s.Domain, err = interaction.PromptValidated(rc, "Domain name", s.Domain, func(v string) error {
			return shared.ValidateHostname(v, "domain")
		})
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("port") {
		portStr, err := interaction.PromptValidated(rc, "Application port", fmt.Sprint(s.AppPort), func(v string) error {
			p, convErr := strconv.Atoi(strings.TrimSpace(v))
			if convErr != nil {
				return cerr.Newf("%q is not an integer", v)
			}
			return shared.ValidatePort(p, "port")
		})
		if err != nil {
			return err
		}
		s.AppPort, _ = strconv.Atoi(strings.TrimSpace(portStr))
	}

	if !cmd.Flags().Changed("ssl") {
		s.EnableSSL, err = interaction.PromptYesNo(rc, "Request a TLS certificate via certbot?", s.EnableSSL)
		if err != nil {
			return err
		}
	}

	if s.EnableSSL && !cmd.Flags().Changed("email") {
		s.AdminEmail, err = interaction.PromptInput(rc, "Admin email (for certbot)", s.AdminEmail)
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("webhook-url") {
		def := s.WebhookURL
		if def == "" && s.Domain != "" {
			def = "https://" + s.Domain + "/webhook"
		}
		s.WebhookURL, err = interaction.PromptInput(rc, "Webhook URL", def)
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("bot-token") {
		s.BotToken, err = interaction.PromptSecret(rc, "Telegram bot token", s.BotToken)
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("supabase-url") {
		s.SupabaseURL, err = interaction.PromptInput(rc, "Supabase project URL", s.SupabaseURL)
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("supabase-key") {
		s.SupabaseKey, err = interaction.PromptSecret(rc, "Supabase service key", s.SupabaseKey)
		if err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("set-webhook") {
		s.SetWebhookNow, err = interaction.PromptYesNo(rc, "Register the webhook with Telegram now?", s.BotToken != "")
		if err != nil {
			return err
		}
	}

	return nil
}

func stringLayer(cmd *cobra.Command, v *viper.Viper, name, current string) string {
	if cmd.Flags().Changed(name) || envSet(name) {
		if val := v.GetString(name); val != "" {
			return val
		}
	}
	return current
}

func intLayer(cmd *cobra.Command, v *viper.Viper, name string, current int) int {
	if cmd.Flags().Changed(name) || envSet(name) {
		if val := v.GetInt(name); val != 0 {
			return val
		}
	}
	return current
}

func boolLayer(cmd *cobra.Command, v *viper.Viper, name string, current bool) bool {
	if cmd.Flags().Changed(name) || envSet(name) {
		return v.GetBool(name)
	}
	return current
}

func envSet(flagName string) bool {
	key := cli.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
	_, ok := os.LookupEnv(key)
	return ok
}
