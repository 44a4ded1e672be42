package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure(t *testing.T) {
	result := Failure(fmt.Errorf("token DOGE on Base: %w", ErrTokenNotSupported))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "token not supported")
	assert.Empty(t, result.Hash)
}

func TestSwapResultJSONOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(&SwapResult{Success: true, Hash: "0xabc", ScanLink: "https://meescan.biconomy.io/details/0xabc"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "error")
	assert.NotContains(t, string(raw), "receipt")

	raw, err = json.Marshal(Failure(errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(raw))
}

func TestUpstreamError(t *testing.T) {
	withCode := &UpstreamError{Service: "okx", Status: 200, Code: "50011", Msg: "Invalid Sign"}
	assert.Equal(t, "okx API error: code 50011: Invalid Sign", withCode.Error())

	plain := &UpstreamError{Service: "mee", Status: 502, Msg: "bad gateway"}
	assert.Equal(t, "mee API error: status 502: bad gateway", plain.Error())

	var target *UpstreamError
	assert.True(t, errors.As(fmt.Errorf("quote: %w", withCode), &target))
	assert.Equal(t, "50011", target.Code)
}

func TestSerializationError(t *testing.T) {
	err := &SerializationError{Value: "3.14", Reason: "floating-point values are not decimal-safe"}
	assert.Contains(t, err.Error(), "3.14")
	assert.Contains(t, err.Error(), "decimal-safe")
}
