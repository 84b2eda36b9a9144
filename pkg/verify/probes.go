// pkg/verify/probes.go
//
// The ordered probe list. Every probe is read-only and independent: a
// failing probe is recorded and the next one runs regardless, so the report
// always covers the whole checklist.

package verify

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"

	"github.com/steadyops/botstrap/pkg/envfile"
	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/httpclient"
	"github.com/steadyops/botstrap/pkg/nginx"
	"github.com/steadyops/botstrap/pkg/pm2"
	"github.com/steadyops/botstrap/pkg/provision"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
	"github.com/steadyops/botstrap/pkg/strap_unix"
	"github.com/steadyops/botstrap/pkg/supabase"
	"github.com/steadyops/botstrap/pkg/telegram"
)

// Certificates inside this window are reported as expiring.
const certExpiryWarning = 14 * 24 * time.Hour

// LetsEncryptLiveDir is overridable in tests.
var LetsEncryptLiveDir = "/etc/letsencrypt/live"

const dialTimeout = 3 * time.Second

// Probes assembles the ordered probe list for the given options.
func Probes(opts Options) []Probe {
	probes := []Probe{
		{Name: "binaries", Run: func(ctx context.Context) ProbeResult { return probeBinaries(ctx, opts) }},
		{Name: "nginx-service", Run: probeNginxService},
		{Name: "listening-ports", Run: func(ctx context.Context) ProbeResult { return probePorts(ctx, opts) }},
		{Name: "nginx-config", Run: probeNginxConfig},
		{Name: "vhost-files", Run: func(ctx context.Context) ProbeResult { return probeVhostFiles(ctx, opts) }},
		{Name: "app-directory", Run: func(ctx context.Context) ProbeResult { return probeAppDir(ctx, opts) }},
		{Name: "secrets-file", Run: func(ctx context.Context) ProbeResult { return probeEnvFile(ctx, opts) }},
		{Name: "pm2-process", Run: func(ctx context.Context) ProbeResult { return probePM2(ctx, opts) }},
	}

	if opts.SSL {
		probes = append(probes, Probe{Name: "tls-certificate", Run: func(ctx context.Context) ProbeResult {
			return probeCertificate(ctx, opts)
		}})
	}

	probes = append(probes,
		Probe{Name: "telegram-reachability", Run: func(ctx context.Context) ProbeResult {
			return probeTelegram(ctx, opts)
		}},
		Probe{Name: "supabase-reachability", Run: func(ctx context.Context) ProbeResult {
			return probeSupabase(ctx, opts)
		}},
		Probe{Name: "firewall", Run: probeFirewall},
	)

	return probes
}

// RunAll executes every probe in order and returns the accumulated results.
func RunAll(ctx context.Context, opts Options) []ProbeResult {
	probes := Probes(opts)
	results := make([]ProbeResult, 0, len(probes))
	for _, p := range probes {
		results = append(results, p.Run(ctx))
	}
	return results
}

func probeBinaries(ctx context.Context, opts Options) ProbeResult {
	const name = "binaries"

	type binCheck struct {
		binary      string
		versionArgs []string
		failMissing bool
	}
	checks := []binCheck{
		{"node", []string{"-v"}, true},
		{"npm", []string{"-v"}, true},
		{"pm2", []string{"-v"}, true},
		{"nginx", []string{"-v"}, true},
		{"ufw", []string{"--version"}, false},
		{"certbot", []string{"--version"}, opts.SSL},
	}

	var present, missing []string
	status := StatusOK
	for _, c := range checks {
		if _, found := execute.LookPath(c.binary); !found {
			missing = append(missing, c.binary)
			if c.failMissing {
				status = StatusFail
			} else if status == StatusOK {
				status = StatusWarn
			}
			continue
		}
		out, err := execute.Run(ctx, execute.Options{
			Command: c.binary, Args: c.versionArgs, Capture: true,
		})
		ver := firstLine(out)
		if err != nil || ver == "" {
			ver = "present"
		}
		present = append(present, fmt.Sprintf("%s %s", c.binary, ver))
	}

	detail := strings.Join(present, ", ")
	if len(missing) > 0 {
		if detail != "" {
			detail += "; "
		}
		detail += "missing: " + strings.Join(missing, ", ")
	}
	return ProbeResult{Name: name, Status: status, Detail: detail}
}

func probeNginxService(ctx context.Context) ProbeResult {
	const name = "nginx-service"
	active, err := strap_unix.ServiceActive(ctx, "nginx")
	if err != nil {
		return warn(name, fmt.Sprintf("could not query systemd: %v", err))
	}
	if !active {
		return fail(name, "nginx service is not active")
	}
	return ok(name, "nginx service is active")
}

func probePorts(_ context.Context, opts Options) ProbeResult {
	const name = "listening-ports"

	ports := []int{opts.AppPort, 80}
	if opts.SSL {
		ports = append(ports, 443)
	}

	var open, closed []string
	for _, port := range ports {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			closed = append(closed, fmt.Sprint(port))
			continue
		}
		conn.Close()
		open = append(open, fmt.Sprint(port))
	}

	if len(closed) > 0 {
		return fail(name, fmt.Sprintf("not listening: %s (open: %s)",
			strings.Join(closed, ", "), strings.Join(open, ", ")))
	}
	return ok(name, "listening on "+strings.Join(open, ", "))
}

func probeNginxConfig(ctx context.Context) ProbeResult {
	const name = "nginx-config"
	if err := nginx.Validate(ctx); err != nil {
		return fail(name, strap_err.ExtractSummary(err.Error(), 1))
	}
	return ok(name, "nginx -t passed")
}

func probeVhostFiles(_ context.Context, opts Options) ProbeResult {
	const name = "vhost-files"
	avail := nginx.AvailablePath(opts.SiteName)
	enabled := nginx.EnabledPath(opts.SiteName)

	if _, err := os.Stat(avail); err != nil {
		return fail(name, fmt.Sprintf("%s missing", avail))
	}

	dest, err := os.Readlink(enabled)
	if err != nil {
		return fail(name, fmt.Sprintf("%s missing or not a symlink", enabled))
	}
	if dest != avail {
		return fail(name, fmt.Sprintf("%s points at %s, expected %s", enabled, dest, avail))
	}
	return ok(name, fmt.Sprintf("%s present and enabled", opts.SiteName))
}

func probeAppDir(_ context.Context, opts Options) ProbeResult {
	const name = "app-directory"

	info, err := os.Stat(opts.AppDir)
	if err != nil || !info.IsDir() {
		return fail(name, fmt.Sprintf("%s does not exist", opts.AppDir))
	}

	var missing []string
	for _, required := range []string{"package.json", opts.AppEntry, "node_modules"} {
		if _, err := os.Stat(filepath.Join(opts.AppDir, required)); err != nil {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return warn(name, fmt.Sprintf("%s exists but missing: %s", opts.AppDir, strings.Join(missing, ", ")))
	}
	return ok(name, opts.AppDir+" complete")
}

func probeEnvFile(_ context.Context, opts Options) ProbeResult {
	const name = "secrets-file"
	path := filepath.Join(opts.AppDir, provision.EnvFileName)

	info, err := os.Stat(path)
	if err != nil {
		return fail(name, path+" missing")
	}
	perms := info.Mode().Perm()

	values, err := envfile.Read(path)
	if err != nil {
		return fail(name, fmt.Sprintf("%s unreadable: %v", path, err))
	}

	expected := []string{
		provision.EnvKeyPort,
		provision.EnvKeyWebhookURL,
		provision.EnvKeyBotToken,
		provision.EnvKeySupabaseURL,
		provision.EnvKeySupabaseKey,
	}
	var missing []string
	for _, key := range expected {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	// Masked display only; the full value never reaches the report.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shown := make([]string, 0, len(keys))
	for _, k := range keys {
		shown = append(shown, fmt.Sprintf("%s=%s", k, shared.MaskSecret(values[k])))
	}
	detail := strings.Join(shown, " ")

	switch {
	case perms != shared.FilePermOwnerReadWrite:
		return warn(name, fmt.Sprintf("permissions %o, want 600; %s", perms, detail))
	case len(missing) > 0:
		return warn(name, fmt.Sprintf("missing keys: %s; %s", strings.Join(missing, ", "), detail))
	default:
		return ok(name, detail)
	}
}

func probePM2(ctx context.Context, opts Options) ProbeResult {
	const name = "pm2-process"

	op, err := strap_unix.InvokingOperator()
	if err != nil {
		return warn(name, fmt.Sprintf("could not resolve operator: %v", err))
	}

	procs, err := pm2.List(ctx, op)
	if err != nil {
		return fail(name, fmt.Sprintf("pm2 jlist failed: %v", err))
	}

	proc := pm2.Find(procs, opts.ProcessName)
	if proc == nil {
		return fail(name, fmt.Sprintf("process %q not managed by pm2", opts.ProcessName))
	}
	if proc.Status != "online" {
		return fail(name, fmt.Sprintf("process %q is %s", opts.ProcessName, proc.Status))
	}

	tail, err := pm2.LogTail(ctx, op, opts.ProcessName, 10)
	if err != nil {
		return warn(name, fmt.Sprintf("process online, log tail unavailable: %v", err))
	}
	return ok(name, fmt.Sprintf("online; recent log: %s", firstLine(tail)))
}

func probeCertificate(_ context.Context, opts Options) ProbeResult {
	const name = "tls-certificate"
	path := filepath.Join(LetsEncryptLiveDir, opts.Domain, "fullchain.pem")

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(name, fmt.Sprintf("no certificate at %s", path))
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return fail(name, path+" is not PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fail(name, fmt.Sprintf("unparseable certificate: %v", err))
	}

	remaining := time.Until(cert.NotAfter)
	detail := fmt.Sprintf("expires %s", cert.NotAfter.Format(time.RFC3339))
	switch {
	case remaining <= 0:
		return fail(name, "certificate expired; "+detail)
	case remaining < certExpiryWarning:
		return warn(name, fmt.Sprintf("certificate expires in %dd; %s", int(remaining.Hours()/24), detail))
	default:
		return ok(name, detail)
	}
}

func probeTelegram(ctx context.Context, opts Options) ProbeResult {
	const name = "telegram-reachability"

	// An authenticated getMe when the app's token is on disk, otherwise a
	// plain reachability check against the API host.
	token := ""
	if values, err := envfile.Read(filepath.Join(opts.AppDir, provision.EnvFileName)); err == nil {
		token = values[provision.EnvKeyBotToken]
	}

	if token == "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, telegram.DefaultBaseURL, nil)
		if err != nil {
			return warn(name, err.Error())
		}
		resp, err := httpclient.DefaultClient().Do(req)
		if err != nil {
			return warn(name, "api.telegram.org unreachable: "+shared.SanitizeForLogging(err.Error()))
		}
		resp.Body.Close()
		return ok(name, fmt.Sprintf("api.telegram.org reachable (HTTP %d), no token to authenticate", resp.StatusCode))
	}

	client, err := telegram.NewClient(token, "")
	if err != nil {
		return warn(name, err.Error())
	}
	me, err := client.GetMe(ctx)
	if err != nil {
		if cerr.Is(err, telegram.ErrMalformedResponse) {
			return fail(name, err.Error())
		}
		return warn(name, shared.SanitizeForLogging(err.Error()))
	}
	return ok(name, fmt.Sprintf("authenticated as @%s", me.Username))
}

func probeSupabase(ctx context.Context, opts Options) ProbeResult {
	const name = "supabase-reachability"

	url := opts.SupabaseURL
	key := ""
	if values, err := envfile.Read(filepath.Join(opts.AppDir, provision.EnvFileName)); err == nil {
		if url == "" {
			url = values[provision.EnvKeySupabaseURL]
		}
		key = values[provision.EnvKeySupabaseKey]
	}
	if url == "" {
		return warn(name, "no Supabase URL configured")
	}

	status, err := supabase.Ping(ctx, url, key)
	if err != nil {
		return warn(name, shared.SanitizeForLogging(err.Error()))
	}
	return ok(name, fmt.Sprintf("answered HTTP %d", status))
}

func probeFirewall(ctx context.Context) ProbeResult {
	const name = "firewall"

	out, err := execute.Run(ctx, execute.Options{
		Command: "ufw", Args: []string{"status"}, Capture: true,
	})
	if err != nil {
		return warn(name, fmt.Sprintf("ufw status failed: %v", err))
	}

	if !strings.Contains(out, "Status: active") {
		return warn(name, "ufw is inactive")
	}
	var missing []string
	for _, rule := range []string{"80", "443"} {
		if !strings.Contains(out, rule) {
			missing = append(missing, rule)
		}
	}
	if len(missing) > 0 {
		return warn(name, "active, but no rule for port "+strings.Join(missing, ", "))
	}
	return ok(name, "active with HTTP/HTTPS rules")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
