// pkg/supabase/supabase.go

package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/steadyops/botstrap/pkg/httpclient"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_err"
)

// Ping checks outbound reachability of a Supabase project's REST endpoint.
// Any HTTP answer counts as reachable, 401 included: an auth rejection still
// proves the service is up and the network path works. Used only by the
// verifier; the key never appears in errors.
func Ping(ctx context.Context, baseURL, key string) (int, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return 0, cerr.New("supabase URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/rest/v1/", nil)
	if err != nil {
		return 0, cerr.Wrap(err, "build supabase request")
	}
	if key != "" {
		req.Header.Set("apikey", key)
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := httpclient.DefaultClient().Do(req)
	if err != nil {
		msg := err.Error()
		if key != "" {
			msg = strings.ReplaceAll(msg, key, "[REDACTED-KEY]")
		}
		return 0, strap_err.NewNetworkError("supabase unreachable",
			cerr.New(shared.SanitizeForLogging(msg)))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, cerr.New(fmt.Sprintf("supabase answered HTTP %d", resp.StatusCode))
	}
	return resp.StatusCode, nil
}
