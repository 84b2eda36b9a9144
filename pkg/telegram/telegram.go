// pkg/telegram/telegram.go
//
// Minimal Telegram Bot API client: only the webhook management calls the
// pipeline and verifier need. The bot token is part of every request URL,
// so URLs are redacted before any error or log line can carry them.

package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/steadyops/botstrap/pkg/httpclient"
	"github.com/steadyops/botstrap/pkg/shared"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ErrMalformedResponse marks a reply that did not decode as the Bot API's
// JSON envelope. On an authenticated call this means something other than
// the API answered, which callers treat as harder than a connectivity blip.
var ErrMalformedResponse = cerr.New("malformed telegram response")

const maxResponseBytes = 1 << 20

// Client talks to the Bot API for one bot token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client; baseURL "" means the production API.
func NewClient(token, baseURL string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, cerr.New("bot token is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.DefaultClient(),
	}, nil
}

// apiResponse is the Bot API envelope; Result stays raw for per-call
// decoding.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// WebhookInfo mirrors getWebhookInfo's result.
type WebhookInfo struct {
	URL                  string `json:"url"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorDate        int64  `json:"last_error_date"`
	LastErrorMessage     string `json:"last_error_message"`
	MaxConnections       int    `json:"max_connections"`
	IPAddress            string `json:"ip_address"`
}

// User mirrors getMe's result.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// SetWebhook registers callbackURL as the bot's webhook.
func (c *Client) SetWebhook(ctx context.Context, callbackURL string) error {
	params := url.Values{"url": {callbackURL}}
	_, err := c.call(ctx, "setWebhook", params)
	return err
}

// DeleteWebhook removes the registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", nil)
	return err
}

// GetWebhookInfo returns the current webhook state.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	raw, err := c.call(ctx, "getWebhookInfo", nil)
	if err != nil {
		return nil, err
	}
	var info WebhookInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, cerr.Wrap(err, "decode webhook info")
	}
	return &info, nil
}

// GetMe returns the bot's own account, which doubles as an authenticated
// reachability check for the verifier.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, cerr.Wrap(err, "decode bot user")
	}
	return &u, nil
}

// call performs one GET against the Bot API. Single attempt: connectivity
// failures are for the caller to report, not to retry indefinitely.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, cerr.Wrapf(c.redact(err), "build %s request", method)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, cerr.Wrapf(c.redact(err), "telegram %s", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, cerr.Wrapf(err, "read %s response", method)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, cerr.Wrapf(ErrMalformedResponse, "telegram %s (HTTP %d): %v", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return nil, cerr.Newf("telegram %s failed: %s (error_code %d)",
			method, envelope.Description, envelope.ErrorCode)
	}
	return envelope.Result, nil
}

// redact strips the token from transport errors, which embed the full
// request URL.
func (c *Client) redact(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ReplaceAll(err.Error(), c.token, "[REDACTED-BOT-TOKEN]")
	return cerr.New(shared.SanitizeForLogging(msg))
}
