// pkg/provision/pipeline_test.go

package provision

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/steadyops/botstrap/pkg/execute"
	"github.com/steadyops/botstrap/pkg/httpclient"
	"github.com/steadyops/botstrap/pkg/logger"
	"github.com/steadyops/botstrap/pkg/strap_io"
	"github.com/steadyops/botstrap/pkg/strap_unix"
)

func testRC(t *testing.T) *strap_io.RuntimeContext {
	t.Helper()
	logger.SetLogger(zaptest.NewLogger(t))
	return strap_io.NewContext(context.Background(), t.Name())
}

func TestRunStepsFailFast(t *testing.T) {
	rc := testRC(t)
	var ran []string

	steps := []Step{
		{Name: "first", Action: func(context.Context) error {
			ran = append(ran, "first")
			return nil
		}},
		{Name: "second", Action: func(context.Context) error {
			ran = append(ran, "second")
			return cerr.New("boom")
		}},
		{Name: "third", Action: func(context.Context) error {
			ran = append(ran, "third")
			return nil
		}},
	}

	err := runSteps(rc, steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, []string{"first", "second"}, ran, "steps after a fatal failure must not run")
}

func TestRunStepsBestEffortContinues(t *testing.T) {
	rc := testRC(t)
	var ran []string

	steps := []Step{
		{Name: "soft", BestEffort: true, Action: func(context.Context) error {
			ran = append(ran, "soft")
			return cerr.New("firewall backend missing")
		}},
		{Name: "after", Action: func(context.Context) error {
			ran = append(ran, "after")
			return nil
		}},
	}

	err := runSteps(rc, steps)
	require.NoError(t, err, "a best-effort failure must not fail the pipeline")
	assert.Equal(t, []string{"soft", "after"}, ran)
}

func TestRunStepsCheckSkipsAction(t *testing.T) {
	rc := testRC(t)
	actionRan := false

	steps := []Step{
		{
			Name:  "idempotent",
			Check: func(context.Context) (bool, string) { return true, "already installed" },
			Action: func(context.Context) error {
				actionRan = true
				return nil
			},
		},
	}

	require.NoError(t, runSteps(rc, steps))
	assert.False(t, actionRan)
}

func TestRunStepsInterruptAborts(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	rc := strap_io.NewContext(ctx, t.Name())

	var ran []string
	steps := []Step{
		{Name: "cancelled", BestEffort: true, Action: func(context.Context) error {
			ran = append(ran, "cancelled")
			cancel()
			return ctx.Err()
		}},
		{Name: "never", Action: func(context.Context) error {
			ran = append(ran, "never")
			return nil
		}},
	}

	err := runSteps(rc, steps)
	require.Error(t, err, "an interrupt overrides best-effort handling")
	assert.Equal(t, []string{"cancelled"}, ran)
}

func TestInstallPackagesRespectsToggles(t *testing.T) {
	tests := []struct {
		name     string
		netTools bool
		devTools bool
		wantNet  bool
		wantDev  bool
	}{
		{name: "all toggles off", netTools: false, devTools: false},
		{name: "net tools only", netTools: true, wantNet: true},
		{name: "dev tools only", devTools: true, wantDev: true},
		{name: "both groups", netTools: true, devTools: true, wantNet: true, wantDev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &execute.Recorder{}
			prev := execute.SetDefault(rec)
			defer execute.SetDefault(prev)

			s := validSettings()
			s.WithNetTools = tt.netTools
			s.WithDevTools = tt.devTools

			require.NoError(t, installPackages(context.Background(), &s))

			assert.True(t, rec.Saw("nginx"), "baseline packages always install")
			assert.Equal(t, tt.wantNet, rec.Saw("dnsutils"))
			assert.Equal(t, tt.wantDev, rec.Saw("build-essential"))
		})
	}
}

// recordingTransport answers every request with a successful Bot API
// envelope and remembers the request paths.
type recordingTransport struct {
	mu    sync.Mutex
	paths []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.paths = append(rt.paths, req.URL.Path)
	rt.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":{}}`)),
	}, nil
}

func (rt *recordingTransport) seen() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, len(rt.paths))
	copy(out, rt.paths)
	return out
}

func TestRegisterWebhookRespectsDryRun(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))

	t.Run("dry run sends no requests", func(t *testing.T) {
		rt := &recordingTransport{}
		prev := httpclient.SetDefaultClient(&http.Client{Transport: rt})
		t.Cleanup(func() { httpclient.SetDefaultClient(prev) })

		s := validSettings()
		s.DryRun = true
		s.SetWebhookNow = true

		require.NoError(t, registerWebhook(context.Background(), &s))
		assert.Empty(t, rt.seen(), "dry run must not touch the Bot API")
	})

	t.Run("live run registers and reads back", func(t *testing.T) {
		rt := &recordingTransport{}
		prev := httpclient.SetDefaultClient(&http.Client{Transport: rt})
		t.Cleanup(func() { httpclient.SetDefaultClient(prev) })

		s := validSettings()
		s.SetWebhookNow = true

		require.NoError(t, registerWebhook(context.Background(), &s))
		paths := rt.seen()
		require.Len(t, paths, 2)
		assert.True(t, strings.HasSuffix(paths[0], "/setWebhook"))
		assert.True(t, strings.HasSuffix(paths[1], "/getWebhookInfo"))
	})
}

func TestDeployApplication(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))

	op, err := strap_unix.InvokingOperator()
	require.NoError(t, err)

	rec := &execute.Recorder{Handler: func(_ context.Context, opts execute.Options) (string, error) {
		// pm2 jlist answers with an empty process list so the start path
		// runs instead of restart.
		if strings.Contains(opts.Command+" "+strings.Join(opts.Args, " "), "jlist") {
			return "[]", nil
		}
		return "", nil
	}}
	prev := execute.SetDefault(rec)
	defer execute.SetDefault(prev)

	s := validSettings()
	s.AppDir = t.TempDir()
	s.Operator = op
	require.NoError(t, os.WriteFile(filepath.Join(s.AppDir, "package.json"), []byte(`{"name":"bot"}`), 0o644))

	require.NoError(t, deployApplication(context.Background(), &s))

	envPath := filepath.Join(s.AppDir, EnvFileName)
	info, err := os.Stat(envPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var npmCall *execute.Options
	for _, call := range rec.Calls() {
		line := strings.TrimSpace(call.Command + " " + strings.Join(call.Args, " "))
		if strings.Contains(line, "npm install --omit=dev") {
			c := call
			npmCall = &c
			break
		}
	}
	require.NotNil(t, npmCall, "npm install must run when package.json is present")
	assert.Equal(t, s.AppDir, npmCall.Dir, "dependencies install inside the app directory")

	assert.True(t, rec.Saw("pm2 start "+s.AppEntry), "process starts under pm2")
	assert.True(t, rec.Saw("pm2 save"), "process list persists for boot")
}

func TestBuildStepsShape(t *testing.T) {
	s := validSettings()
	s.SetWebhookNow = true

	names := func(steps []Step) []string {
		out := make([]string, len(steps))
		for i, st := range steps {
			out[i] = st.Name
		}
		return out
	}

	t.Run("full pipeline order", func(t *testing.T) {
		got := names(BuildSteps(&s))
		assert.Equal(t, []string{
			"system-update", "base-packages", "node-runtime", "pm2-startup",
			"firewall", "nginx-vhost", "tls-certificate", "application",
			"telegram-webhook",
		}, got)
	})

	t.Run("optional steps drop out", func(t *testing.T) {
		s2 := s
		s2.EnableSSL = false
		s2.SetWebhookNow = false
		got := names(BuildSteps(&s2))
		assert.NotContains(t, got, "tls-certificate")
		assert.NotContains(t, got, "telegram-webhook")
	})

	t.Run("severity classification", func(t *testing.T) {
		for _, st := range BuildSteps(&s) {
			switch st.Name {
			case "pm2-startup", "firewall", "tls-certificate", "telegram-webhook":
				assert.True(t, st.BestEffort, "%s must be best-effort", st.Name)
			default:
				assert.False(t, st.BestEffort, "%s must be fail-fast", st.Name)
			}
		}
	})
}
