// pkg/provision/settings.go

package provision

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

// Settings is the immutable provisioning record: built once from defaults,
// environment, flags, and prompts, then handed to the pipeline and never
// mutated. Secrets are only ever displayed through shared.MaskSecret.
type Settings struct {
	Domain      string `validate:"required"`
	AppPort     int    `validate:"required,min=1,max=65535"`
	SiteName    string `validate:"required"`
	AppDir      string `validate:"required,startswith=/"`
	ProcessName string `validate:"required"`
	AppEntry    string `validate:"required"`

	EnableSSL  bool
	AdminEmail string `validate:"omitempty,email"`

	WebhookURL  string `validate:"omitempty,url"`
	BotToken    string
	SupabaseURL string `validate:"omitempty,url"`
	SupabaseKey string

	SetWebhookNow bool
	NodeMajor     int `validate:"required,min=14,max=30"`
	WithNetTools  bool
	WithDevTools  bool

	Operator *strap_unix.Operator

	// Yes accepts every default and skips prompts; DryRun logs external
	// commands instead of running them.
	Yes    bool
	DryRun bool
}

// Defaults is the single place the hard-coded layer lives.
func Defaults() Settings {
	return Settings{
		AppPort:     3000,
		SiteName:    "telegram-bot",
		AppDir:      "/opt/telegram-bot",
		ProcessName: "telegram-bot",
		AppEntry:    "index.js",
		EnableSSL:   true,
		NodeMajor:   22,
	}
}

var validate = validator.New()

// Validate reports every violation together instead of stopping at the
// first, so the operator fixes one round of input, not five.
func (s *Settings) Validate() error {
	var result *multierror.Error

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if cerr.As(err, &verrs) {
			for _, fe := range verrs {
				result = multierror.Append(result, describeFieldError(fe))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	// Hostname shape gates what ends up inside a server_name directive.
	if s.Domain != "" {
		if err := shared.ValidateHostname(s.Domain, "domain"); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if s.SiteName != "" {
		if err := shared.ValidateSafeString(s.SiteName, 64, "site name"); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if s.ProcessName != "" {
		if err := shared.ValidateSafeString(s.ProcessName, 64, "process name"); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if s.EnableSSL && s.AdminEmail == "" {
		result = multierror.Append(result, cerr.New("admin email is required when SSL is enabled"))
	}
	if s.SetWebhookNow {
		if s.BotToken == "" {
			result = multierror.Append(result, cerr.New("bot token is required to register the webhook"))
		}
		if !strings.HasPrefix(s.WebhookURL, "https://") {
			result = multierror.Append(result, cerr.New("webhook URL must be https (Telegram rejects plain http)"))
		}
	}

	return result.ErrorOrNil()
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return cerr.Newf("%s must not be empty", fe.Field())
	case "min", "max":
		return cerr.Newf("%s out of range (got %v)", fe.Field(), fe.Value())
	case "email":
		return cerr.Newf("%s is not a valid email address", fe.Field())
	case "url":
		return cerr.Newf("%s is not a valid URL", fe.Field())
	case "startswith":
		return cerr.Newf("%s must be an absolute path", fe.Field())
	default:
		return cerr.Newf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// Summary renders the confirmation view shown before any mutating action.
// Secrets appear masked, never in full.
func (s *Settings) Summary() string {
	var sb strings.Builder
	w := func(label, value string) {
		fmt.Fprintf(&sb, "  %-16s %s\n", label, value)
	}

	sb.WriteString("Provisioning plan:\n")
	w("Domain:", s.Domain)
	w("App port:", fmt.Sprint(s.AppPort))
	w("Site name:", s.SiteName)
	w("App directory:", s.AppDir)
	w("Process name:", s.ProcessName)
	w("Entry file:", s.AppEntry)
	w("Node major:", fmt.Sprint(s.NodeMajor))
	w("SSL:", onOff(s.EnableSSL))
	if s.EnableSSL {
		w("Admin email:", s.AdminEmail)
	}
	w("Webhook URL:", s.WebhookURL)
	w("Bot token:", shared.MaskSecret(s.BotToken))
	w("Supabase URL:", s.SupabaseURL)
	w("Supabase key:", shared.MaskSecret(s.SupabaseKey))
	w("Set webhook:", onOff(s.SetWebhookNow))
	w("Net tools:", onOff(s.WithNetTools))
	w("Dev tools:", onOff(s.WithDevTools))
	if s.Operator != nil {
		w("Operator:", s.Operator.Name)
	}
	if s.DryRun {
		w("Mode:", "dry-run (no changes will be made)")
	}
	return sb.String()
}

func onOff(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
