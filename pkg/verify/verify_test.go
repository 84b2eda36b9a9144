// pkg/verify/verify_test.go

package verify

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steadyops/botstrap/pkg/httpclient"
	"github.com/steadyops/botstrap/pkg/nginx"
)

func TestExitError(t *testing.T) {
	tests := []struct {
		name    string
		results []ProbeResult
		wantErr bool
	}{
		{
			name:    "all ok",
			results: []ProbeResult{{Status: StatusOK}, {Status: StatusOK}},
		},
		{
			name:    "warnings alone keep exit zero",
			results: []ProbeResult{{Status: StatusOK}, {Status: StatusWarn}, {Status: StatusWarn}},
		},
		{
			name:    "single failure flips the exit status",
			results: []ProbeResult{{Status: StatusOK}, {Status: StatusFail}},
			wantErr: true,
		},
		{
			name:    "failure among warnings",
			results: []ProbeResult{{Status: StatusWarn}, {Status: StatusFail}, {Status: StatusWarn}},
			wantErr: true,
		},
		{
			name:    "empty report",
			results: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExitError(tt.results)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	okCount, warnCount, failCount := Counts([]ProbeResult{
		{Status: StatusOK}, {Status: StatusOK}, {Status: StatusWarn}, {Status: StatusFail},
	})
	assert.Equal(t, 2, okCount)
	assert.Equal(t, 1, warnCount)
	assert.Equal(t, 1, failCount)
}

func TestRender(t *testing.T) {
	out := Render([]ProbeResult{
		{Name: "binaries", Status: StatusOK, Detail: "node v22.14.0"},
		{Name: "firewall", Status: StatusWarn, Detail: "ufw is inactive"},
	})
	assert.Contains(t, out, "binaries")
	assert.Contains(t, out, "node v22.14.0")
	assert.Contains(t, out, "1 ok, 1 warnings, 0 failures")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON([]ProbeResult{{Name: "binaries", Status: StatusFail, Detail: "node missing"}})
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "FAIL"`)
	assert.Contains(t, out, `"failures": 1`)
}

func TestProbeVhostFiles(t *testing.T) {
	base := t.TempDir()
	avail := filepath.Join(base, "sites-available")
	enabled := filepath.Join(base, "sites-enabled")
	require.NoError(t, os.MkdirAll(avail, 0o755))
	require.NoError(t, os.MkdirAll(enabled, 0o755))

	prevAvail, prevEnabled := nginx.SitesAvailableDir, nginx.SitesEnabledDir
	nginx.SitesAvailableDir, nginx.SitesEnabledDir = avail, enabled
	t.Cleanup(func() {
		nginx.SitesAvailableDir, nginx.SitesEnabledDir = prevAvail, prevEnabled
	})

	opts := Options{SiteName: "mybot"}
	ctx := context.Background()

	t.Run("missing vhost fails", func(t *testing.T) {
		res := probeVhostFiles(ctx, opts)
		assert.Equal(t, StatusFail, res.Status)
	})

	t.Run("available without enabled fails", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(avail, "mybot"), []byte("server {}"), 0o644))
		res := probeVhostFiles(ctx, opts)
		assert.Equal(t, StatusFail, res.Status)
	})

	t.Run("enabled symlink resolves", func(t *testing.T) {
		require.NoError(t, os.Symlink(filepath.Join(avail, "mybot"), filepath.Join(enabled, "mybot")))
		res := probeVhostFiles(ctx, opts)
		assert.Equal(t, StatusOK, res.Status)
	})
}

func TestProbeEnvFile(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file fails", func(t *testing.T) {
		res := probeEnvFile(ctx, Options{AppDir: t.TempDir()})
		assert.Equal(t, StatusFail, res.Status)
	})

	t.Run("masked display, never the raw secret", func(t *testing.T) {
		dir := t.TempDir()
		secret := "123456789:AAFakeTokenFakeTokenFakeTokenFT0"
		content := "PORT=3000\nWEBHOOK_URL=https://x.example/webhook\nTELEGRAM_BOT_TOKEN=" + secret +
			"\nSUPABASE_URL=https://p.supabase.co\nSUPABASE_KEY=eyJfake.payload.sig\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

		res := probeEnvFile(ctx, Options{AppDir: dir})
		assert.Equal(t, StatusOK, res.Status)
		assert.NotContains(t, res.Detail, secret)
		assert.Contains(t, res.Detail, "TELEGRAM_BOT_TOKEN=12****T0")
	})

	t.Run("loose permissions warn", func(t *testing.T) {
		dir := t.TempDir()
		content := "PORT=3000\nWEBHOOK_URL=u\nTELEGRAM_BOT_TOKEN=t\nSUPABASE_URL=s\nSUPABASE_KEY=k\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644))

		res := probeEnvFile(ctx, Options{AppDir: dir})
		assert.Equal(t, StatusWarn, res.Status)
		assert.Contains(t, res.Detail, "644")
	})

	t.Run("missing expected keys warn", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=3000\n"), 0o600))

		res := probeEnvFile(ctx, Options{AppDir: dir})
		assert.Equal(t, StatusWarn, res.Status)
		assert.Contains(t, res.Detail, "TELEGRAM_BOT_TOKEN")
	})
}

func TestProbeCertificate(t *testing.T) {
	ctx := context.Background()

	prev := LetsEncryptLiveDir
	LetsEncryptLiveDir = t.TempDir()
	t.Cleanup(func() { LetsEncryptLiveDir = prev })

	t.Run("absent certificate fails", func(t *testing.T) {
		res := probeCertificate(ctx, Options{Domain: "bot.example.com", SSL: true})
		assert.Equal(t, StatusFail, res.Status)
	})

	t.Run("garbage PEM fails", func(t *testing.T) {
		dir := filepath.Join(LetsEncryptLiveDir, "bot.example.com")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "fullchain.pem"), []byte("not a cert"), 0o644))

		res := probeCertificate(ctx, Options{Domain: "bot.example.com", SSL: true})
		assert.Equal(t, StatusFail, res.Status)
	})
}

// staticTransport answers every request with a fixed status and body.
type staticTransport struct {
	status int
	body   string
}

func (st *staticTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: st.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(st.body)),
	}, nil
}

func TestProbeTelegram(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	env := "TELEGRAM_BOT_TOKEN=123456789:AAFakeTokenFakeTokenFakeTokenFT0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	opts := Options{AppDir: dir}

	swap := func(t *testing.T, rt http.RoundTripper) {
		t.Helper()
		prev := httpclient.SetDefaultClient(&http.Client{Transport: rt})
		t.Cleanup(func() { httpclient.SetDefaultClient(prev) })
	}

	t.Run("authenticated getMe passes", func(t *testing.T) {
		swap(t, &staticTransport{status: http.StatusOK,
			body: `{"ok":true,"result":{"id":1,"is_bot":true,"username":"examplebot"}}`})
		res := probeTelegram(ctx, opts)
		assert.Equal(t, StatusOK, res.Status)
		assert.Contains(t, res.Detail, "@examplebot")
	})

	t.Run("non-JSON reply fails rather than warns", func(t *testing.T) {
		swap(t, &staticTransport{status: http.StatusBadGateway, body: `<html>bad gateway</html>`})
		res := probeTelegram(ctx, opts)
		assert.Equal(t, StatusFail, res.Status)
		assert.Contains(t, res.Detail, "502")
	})

	t.Run("API rejection stays a warning", func(t *testing.T) {
		swap(t, &staticTransport{status: http.StatusUnauthorized,
			body: `{"ok":false,"error_code":401,"description":"Unauthorized"}`})
		res := probeTelegram(ctx, opts)
		assert.Equal(t, StatusWarn, res.Status)
	})
}

func TestProbeOrderAndIndependence(t *testing.T) {
	opts := Options{
		Domain: "bot.example.com", AppPort: 3000, SiteName: "mybot",
		AppDir: "/opt/mybot", ProcessName: "mybot", AppEntry: "index.js", SSL: true,
	}
	probes := Probes(opts)

	names := make([]string, len(probes))
	for i, p := range probes {
		names[i] = p.Name
	}
	assert.Equal(t, []string{
		"binaries", "nginx-service", "listening-ports", "nginx-config",
		"vhost-files", "app-directory", "secrets-file", "pm2-process",
		"tls-certificate", "telegram-reachability", "supabase-reachability",
		"firewall",
	}, names)

	noSSL := Probes(Options{SiteName: "mybot"})
	for _, p := range noSSL {
		assert.NotEqual(t, "tls-certificate", p.Name)
	}
}
