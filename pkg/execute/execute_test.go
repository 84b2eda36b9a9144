package execute

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX tools required")
	}

	out, err := Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello"},
		Capture: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRunWithoutCaptureReturnsEmpty(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX tools required")
	}

	out, err := Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunDryRunExecutesNothing(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(context.Background(), Options{
		Command: "touch",
		Args:    []string{dir + "/created"},
		DryRun:  true,
	})
	require.NoError(t, err)
	assert.NoFileExists(t, dir+"/created")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Command: "definitely-not-a-real-binary-3917",
	})
	assert.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX tools required")
	}

	start := time.Now()
	_, err := Run(context.Background(), Options{
		Command: "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunRetriesCountAttempts(t *testing.T) {
	rec := &Recorder{}
	prev := SetDefault(rec)
	defer SetDefault(prev)

	_, _ = Run(context.Background(), Options{
		Command: "false-like",
		Retries: 3,
	})

	// Recorder answers success on the first call, so a single attempt.
	assert.Len(t, rec.Calls(), 1)
}

func TestRecorderSaw(t *testing.T) {
	rec := &Recorder{}
	prev := SetDefault(rec)
	defer SetDefault(prev)

	err := RunSimple(context.Background(), "apt-get", "install", "-y", "nginx")
	require.NoError(t, err)

	assert.True(t, rec.Saw("apt-get install -y nginx"))
	assert.False(t, rec.Saw("certbot"))
}

func TestLookPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX layout required")
	}

	_, ok := LookPath("sh")
	assert.True(t, ok)

	_, ok = LookPath("definitely-not-a-real-binary-3917")
	assert.False(t, ok)
}
