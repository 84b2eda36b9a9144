// pkg/envfile/envfile_test.go

package envfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("ordered key=value lines", func(t *testing.T) {
		out, err := Render([][2]string{
			{"PORT", "3000"},
			{"WEBHOOK_URL", "https://example.com/webhook"},
			{"TELEGRAM_BOT_TOKEN", "123:abc"},
		})
		require.NoError(t, err)
		assert.Equal(t, "PORT=3000\nWEBHOOK_URL=https://example.com/webhook\nTELEGRAM_BOT_TOKEN=123:abc\n", out)
	})

	t.Run("rejects bad keys and multiline values", func(t *testing.T) {
		_, err := Render([][2]string{{"", "x"}})
		assert.Error(t, err)
		_, err = Render([][2]string{{"A B", "x"}})
		assert.Error(t, err)
		_, err = Render([][2]string{{"KEY", "line1\nline2"}})
		assert.Error(t, err)
	})
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("writes with owner-only permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		changed, err := Write(ctx, path, "PORT=3000\n")
		require.NoError(t, err)
		assert.True(t, changed)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("identical content is not rewritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		_, err := Write(ctx, path, "PORT=3000\n")
		require.NoError(t, err)
		before, err := os.Stat(path)
		require.NoError(t, err)

		changed, err := Write(ctx, path, "PORT=3000\n")
		require.NoError(t, err)
		assert.False(t, changed)

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, before.ModTime(), after.ModTime())
	})

	t.Run("changed content replaces the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		_, err := Write(ctx, path, "PORT=3000\n")
		require.NoError(t, err)
		changed, err := Write(ctx, path, "PORT=4000\n")
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "PORT=4000\n", string(data))
	})
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content, err := Render([][2]string{
		{"PORT", "3000"},
		{"SUPABASE_KEY", "eyJfake.payload.sig"},
	})
	require.NoError(t, err)

	_, err = Write(context.Background(), path, content)
	require.NoError(t, err)

	values, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "3000", values["PORT"])
	assert.Equal(t, "eyJfake.payload.sig", values["SUPABASE_KEY"])
}
