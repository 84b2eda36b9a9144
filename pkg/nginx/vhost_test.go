// pkg/nginx/vhost_test.go

package nginx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVhost(t *testing.T) {
	ctx := context.Background()

	t.Run("renders server block", func(t *testing.T) {
		out, err := RenderVhost(ctx, VhostData{Domain: "example.com", AppPort: 3000})
		require.NoError(t, err)

		assert.Contains(t, out, "server_name example.com;")
		assert.Contains(t, out, "proxy_pass http://localhost:3000;")
		assert.NotContains(t, out, "{{")
		assert.NotContains(t, out, "}}")
	})

	t.Run("identical data renders byte-identical output", func(t *testing.T) {
		data := VhostData{Domain: "bot.example.org", AppPort: 8080}
		first, err := RenderVhost(ctx, data)
		require.NoError(t, err)
		second, err := RenderVhost(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects unsafe domain", func(t *testing.T) {
		for _, domain := range []string{"", "../../etc/passwd", "exa mple.com", "a.com;}"} {
			_, err := RenderVhost(ctx, VhostData{Domain: domain, AppPort: 3000})
			assert.Error(t, err, "domain %q should be rejected", domain)
		}
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		for _, port := range []int{0, -1, 70000} {
			_, err := RenderVhost(ctx, VhostData{Domain: "example.com", AppPort: port})
			assert.Error(t, err, "port %d should be rejected", port)
		}
	})
}
