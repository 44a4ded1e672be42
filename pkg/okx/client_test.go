package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

var testCreds = Credentials{
	APIKey:     "test-api-key",
	SecretKey:  "test-secret",
	Passphrase: "test-pass",
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(testCreds, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, srv
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Credentials{APIKey: "k", SecretKey: "s"})
	assert.Error(t, err)

	_, err = NewClient(testCreds)
	assert.NoError(t, err)
}

func TestRequestSigning(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	var got *http.Request
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
	}))
	c.now = func() time.Time { return fixed }

	var out []struct{}
	err := c.get(context.Background(), "/api/v5/dex/aggregator/all-tokens", map[string][]string{"chainIndex": {"8453"}}, &out)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "test-api-key", got.Header.Get("OK-ACCESS-KEY"))
	assert.Equal(t, "test-pass", got.Header.Get("OK-ACCESS-PASSPHRASE"))
	assert.Equal(t, "2025-03-14T09:26:53Z", got.Header.Get("OK-ACCESS-TIMESTAMP"))

	// Recompute the expected signature over timestamp + method + path?query.
	mac := hmac.New(sha256.New, []byte(testCreds.SecretKey))
	mac.Write([]byte("2025-03-14T09:26:53ZGET/api/v5/dex/aggregator/all-tokens?chainIndex=8453"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, got.Header.Get("OK-ACCESS-SIGN"))
}

func TestEnvelopeErrorCode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50011","msg":"Invalid Sign","data":[]}`))
	}))

	err := c.get(context.Background(), "/api/v5/dex/aggregator/all-tokens", nil, nil)
	require.Error(t, err)

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "okx", upstream.Service)
	assert.Equal(t, "50011", upstream.Code)
	assert.Contains(t, upstream.Msg, "Invalid Sign")
}

func TestHTTPErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))

	err := c.get(context.Background(), "/api/v5/dex/aggregator/quote", nil, nil)
	require.Error(t, err)

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
}

func TestListTokens(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/dex/aggregator/all-tokens", r.URL.Path)
		assert.Equal(t, "8453", r.URL.Query().Get("chainIndex"))
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"decimals":"6","tokenContractAddress":"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913","tokenLogoUrl":"","tokenName":"USD Coin","tokenSymbol":"USDC"},
			{"decimals":"18","tokenContractAddress":"0x4200000000000000000000000000000000000006","tokenLogoUrl":"","tokenName":"Wrapped Ether","tokenSymbol":"WETH"}
		]}`))
	}))

	tokens, err := c.ListTokens(context.Background(), 8453)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, int32(6), tokens[0].Decimals)
	assert.Equal(t, int64(8453), tokens[0].ChainID)

	usdc := FindTokenBySymbol(tokens, "usdc")
	require.NotNil(t, usdc)
	assert.Equal(t, "USDC", usdc.Symbol)

	assert.Nil(t, FindTokenBySymbol(tokens, "DOGE"))

	weth := FindTokenByAddress(tokens, "0x4200000000000000000000000000000000000006")
	require.NotNil(t, weth)
	assert.Equal(t, "WETH", weth.Symbol)
}

func TestListTokensEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
	}))

	_, err := c.ListTokens(context.Background(), 196)
	assert.ErrorIs(t, err, types.ErrNoTokens)
}

func TestSupportedChains(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/dex/aggregator/supported/chain", r.URL.Path)
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"chainId":"1","chainIndex":"1"},
			{"chainId":"8453","chainIndex":"8453"}
		]}`))
	}))

	chains, err := c.SupportedChains(context.Background())
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, int64(8453), chains[1].ChainID)
}
