package mee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

const (
	defaultBaseURL      = "https://network.biconomy.io"
	scanBaseURL         = "https://meescan.biconomy.io/details/"
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 5 * time.Minute
	maxSubmitAttempts   = 3
)

// Execution lifecycle states, in order. A bundle reaches SETTLED or FAILED
// and nothing after that.
const (
	StateQuoteRequested = "QUOTE_REQUESTED"
	StateQuoteReceived  = "QUOTE_RECEIVED"
	StateSubmitted      = "SUBMITTED"
	StatePending        = "PENDING"
	StateSettled        = "SETTLED"
	StateFailed         = "FAILED"
)

// Client talks to the meta-transaction execution service: quote a bundle,
// execute it, poll for the settlement receipt.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	log          *zap.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log.Named("mee") }
}

// WithPollInterval sets the receipt polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithPollTimeout bounds how long WaitForReceipt polls before giving up.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) { c.pollTimeout = d }
}

// NewClient creates an execution-service client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultBaseURL,
		log:          zap.NewNop(),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FusionQuoteRequest is one instruction bundle, its funding trigger, and the
// token paying execution fees.
type FusionQuoteRequest struct {
	Instructions []Instruction `json:"instructions"`
	Trigger      Trigger       `json:"trigger"`
	FeeToken     FeeToken      `json:"feeToken"`
}

// FusionQuote is the service's priced offer to execute a bundle. Raw carries
// the full quote payload; Execute echoes it back unmodified.
type FusionQuote struct {
	ID  string
	Raw json.RawMessage
}

// GetFusionQuote validates the bundle and asks the service to price it.
func (c *Client) GetFusionQuote(ctx context.Context, req FusionQuoteRequest) (*FusionQuote, error) {
	if err := ValidateBundle(req.Instructions, req.Trigger); err != nil {
		return nil, fmt.Errorf("invalid bundle: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode fusion quote request: %w", err)
	}

	c.log.Debug("requesting fusion quote",
		zap.Int("instructions", len(req.Instructions)),
		zap.Int64("triggerChain", req.Trigger.ChainID))

	raw, err := c.post(ctx, "/v3/quote", body, "")
	if err != nil {
		return nil, fmt.Errorf("fusion quote: %w", err)
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.ID == "" {
		return nil, fmt.Errorf("fusion quote: response missing quote id")
	}

	return &FusionQuote{ID: parsed.ID, Raw: raw}, nil
}

// Execute submits a fusion quote for execution and returns the settlement
// hash. The submission carries an idempotency key and retries only on
// transport-level failures: once the service may have accepted the bundle,
// resubmitting under a new key would risk double execution.
func (c *Client) Execute(ctx context.Context, quote *FusionQuote) (string, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"quote": quote.Raw})
	if err != nil {
		return "", fmt.Errorf("encode execute request: %w", err)
	}

	idempotencyKey := uuid.NewString()

	var raw json.RawMessage
	for attempt := 1; ; attempt++ {
		raw, err = c.post(ctx, "/v3/execute", body, idempotencyKey)
		if err == nil {
			break
		}
		if attempt >= maxSubmitAttempts || !isTransportError(err) {
			return "", fmt.Errorf("execute quote %s: %w", quote.ID, err)
		}
		c.log.Warn("submission transport failure, retrying",
			zap.String("quoteId", quote.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	var parsed struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Hash == "" {
		return "", fmt.Errorf("execute quote %s: response missing hash", quote.ID)
	}

	c.log.Info("bundle submitted", zap.String("hash", parsed.Hash))
	return parsed.Hash, nil
}

// Receipt is the settlement receipt, status plus the service's full payload
// with every wide integer already rendered as a decimal string.
type Receipt struct {
	Hash          string
	Status        string
	ExplorerLinks []string
	Raw           json.RawMessage
}

// Successful reports whether the bundle settled successfully.
func (r *Receipt) Successful() bool {
	return r.Status == "MINED_SUCCESS" || r.Status == "SUCCESS"
}

func isTerminalStatus(status string) bool {
	switch status {
	case "MINED_SUCCESS", "SUCCESS", "MINED_FAIL", "FAILED", "REVERTED":
		return true
	}
	return false
}

// WaitForReceipt polls until the settlement reaches a terminal status. The
// wait is bounded by the client's poll timeout and the caller's context,
// whichever ends first; a settled-but-reverted bundle returns a receipt, not
// an error.
func (c *Client) WaitForReceipt(ctx context.Context, hash string) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.fetchReceipt(ctx, hash)
		if err != nil {
			var upstream *types.UpstreamError
			if !errors.As(err, &upstream) {
				return nil, err
			}
			// Transient service errors keep the poll alive.
			c.log.Debug("receipt not ready", zap.String("hash", hash), zap.Error(err))
		} else if isTerminalStatus(receipt.Status) {
			c.log.Info("bundle settled", zap.String("hash", hash), zap.String("status", receipt.Status))
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await receipt %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetReceipt fetches the current settlement state once, without waiting for
// a terminal status.
func (c *Client) GetReceipt(ctx context.Context, hash string) (*Receipt, error) {
	return c.fetchReceipt(ctx, hash)
}

func (c *Client) fetchReceipt(ctx context.Context, hash string) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/explorer/"+hash, nil)
	if err != nil {
		return nil, fmt.Errorf("build receipt request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %s: %w", hash, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read receipt %s: %w", hash, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &types.UpstreamError{Service: "mee", Status: resp.StatusCode, Msg: string(body)}
	}

	normalized, err := NormalizeNumbers(body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Hash              string   `json:"hash"`
		TransactionStatus string   `json:"transactionStatus"`
		ExplorerLinks     []string `json:"explorerLinks"`
	}
	if err := json.Unmarshal(normalized, &parsed); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", hash, err)
	}

	return &Receipt{
		Hash:          parsed.Hash,
		Status:        parsed.TransactionStatus,
		ExplorerLinks: parsed.ExplorerLinks,
		Raw:           normalized,
	}, nil
}

// post sends a JSON body and returns the raw response. 4xx responses map to
// ErrExecutionRejected, 5xx to UpstreamError.
func (c *Client) post(ctx context.Context, path string, body []byte, idempotencyKey string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", types.ErrExecutionRejected, errorMessage(respBody))
	default:
		return nil, &types.UpstreamError{Service: "mee", Status: resp.StatusCode, Msg: errorMessage(respBody)}
	}
}

func errorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}

// transportError marks failures where the request may never have reached the
// service, which makes resubmission safe.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransportError(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// ScanLink returns the explorer URL for a settlement hash.
func ScanLink(hash string) string {
	return scanBaseURL + hash
}
