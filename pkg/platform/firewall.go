// pkg/platform/firewall.go

package platform

import (
	"context"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/steadyops/botstrap/pkg/execute"
)

// FirewallStatus returns the raw `ufw status` listing.
func FirewallStatus(ctx context.Context) (string, error) {
	out, err := execute.Run(ctx, execute.Options{
		Command: "ufw",
		Args:    []string{"status"},
		Capture: true,
	})
	if err != nil {
		return out, cerr.Wrap(err, "ufw status")
	}
	return out, nil
}

// FirewallActive reports whether ufw says "Status: active".
func FirewallActive(ctx context.Context) (bool, error) {
	out, err := FirewallStatus(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "Status: active"), nil
}

// FirewallAllow inserts an allow rule. ufw reports "Skipping adding existing
// rule" for duplicates rather than failing, so re-runs are safe.
func FirewallAllow(ctx context.Context, rule string) error {
	otelzap.Ctx(ctx).Info("Allowing firewall rule", zap.String("rule", rule))
	if err := execute.RunSimple(ctx, "ufw", "allow", rule); err != nil {
		return cerr.Wrapf(err, "ufw allow %s", rule)
	}
	return nil
}

// FirewallEnsureEnabled enables ufw only when it is currently inactive.
// Toggling an already-active firewall could drop custom rules the operator
// added, so an active firewall is left exactly as found.
func FirewallEnsureEnabled(ctx context.Context) error {
	log := otelzap.Ctx(ctx)

	active, err := FirewallActive(ctx)
	if err != nil {
		return err
	}
	if active {
		log.Info("Firewall already active, leaving as-is")
		return nil
	}

	log.Info("Enabling firewall")
	if err := execute.RunSimple(ctx, "ufw", "--force", "enable"); err != nil {
		return cerr.Wrap(err, "ufw enable")
	}
	return nil
}
