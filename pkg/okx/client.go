// Package okx is a client for the OKX DEX aggregator HTTP API: token
// directory, price quotes, liquidity sources, and approval/swap transaction
// payloads. Every request is signed with the account's secret key.
package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

const defaultBaseURL = "https://web3.okx.com"

// Credentials holds the OKX API access keys.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Client is a signed OKX DEX aggregator API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	log        *zap.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log.Named("okx") }
}

// NewClient creates a signed aggregator client. All three credentials are
// required; missing secrets fail here rather than on the first request.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if creds.APIKey == "" || creds.SecretKey == "" || creds.Passphrase == "" {
		return nil, fmt.Errorf("missing OKX API credentials: api key, secret key and passphrase are all required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		creds:      creds,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the aggregator's response wrapper. A code other than "0" is a
// protocol-level failure even when the HTTP status is 200.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// timestamp renders the signing timestamp: ISO-8601 at second precision with
// a trailing Z, matching what the API verifies against.
func (c *Client) timestamp() string {
	return c.now().UTC().Format("2006-01-02T15:04:05Z")
}

// sign computes the request signature: base64(HMAC-SHA256(secret, prehash))
// where prehash is timestamp + method + path [+ "?" + query | body].
func sign(secretKey, message string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) setAuthHeaders(req *http.Request, timestamp, signature string) {
	req.Header.Set("OK-ACCESS-KEY", c.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", signature)
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.creds.Passphrase)
	req.Header.Set("Content-Type", "application/json")
}

// get performs a signed GET and decodes the envelope data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	encoded := query.Encode()
	message := path
	if encoded != "" {
		message += "?" + encoded
	}

	ts := c.timestamp()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+message, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	c.setAuthHeaders(req, ts, sign(c.creds.SecretKey, ts+http.MethodGet+message))

	c.log.Debug("aggregator request", zap.String("path", path), zap.String("query", encoded))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &types.UpstreamError{Service: "okx", Status: resp.StatusCode, Msg: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parse response %s: %w", path, err)
	}
	if env.Code != "0" {
		return &types.UpstreamError{Service: "okx", Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parse response data %s: %w", path, err)
		}
	}
	return nil
}
