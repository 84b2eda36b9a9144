// pkg/httpclient/httpclient.go
//
// One shared HTTP client for every outbound call (Telegram, Supabase,
// reachability probes). Bounded timeout, TLS 1.2 minimum, swappable for
// tests the same way execute.SetDefault swaps the command runner.

package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds every outbound request end to end.
const DefaultTimeout = 30 * time.Second

var (
	clientMu      sync.RWMutex
	defaultClient = newClient()
)

func newClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// DefaultClient returns the shared client.
func DefaultClient() *http.Client {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return defaultClient
}

// SetDefaultClient replaces the shared client, returning the previous one so
// tests can restore it.
func SetDefaultClient(c *http.Client) *http.Client {
	clientMu.Lock()
	defer clientMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}
