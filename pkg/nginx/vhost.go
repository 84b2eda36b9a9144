// pkg/nginx/vhost.go

package nginx

import (
	"context"

	cerr "github.com/cockroachdb/errors"

	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/templates"
)

// vhostTemplate is the reverse-proxy server block: plain HTTP on port 80
// forwarding to the local application port with forwarded-header propagation
// and websocket upgrade support. Certbot rewrites it in place when TLS is
// requested, so the template itself stays HTTP-only.
const vhostTemplate = `server {
    listen 80;
    listen [::]:80;

    server_name {{.Domain}};

    location / {
        proxy_pass http://localhost:{{.AppPort}};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection 'upgrade';
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_cache_bypass $http_upgrade;
    }
}
`

// VhostData is the placeholder set for the vhost template.
type VhostData struct {
	Domain  string
	AppPort int
}

// RenderVhost produces the vhost file content. Values are gated against the
// safe patterns first so a domain containing a slash or semicolon can never
// escape the config syntax; rendering identical data yields identical bytes.
func RenderVhost(ctx context.Context, data VhostData) (string, error) {
	if err := shared.ValidateHostname(data.Domain, "domain"); err != nil {
		return "", cerr.Wrap(err, "vhost domain")
	}
	if err := shared.ValidatePort(data.AppPort, "app port"); err != nil {
		return "", cerr.Wrap(err, "vhost port")
	}

	return templates.NewRenderer(nil).RenderString(ctx, vhostTemplate, data)
}
