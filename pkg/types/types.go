package types

import "encoding/json"

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Network         string
	Amount          string
	FromTokenSymbol string
	ToTokenSymbol   string
	Recipient       string
}

// DepositRequest represents a swap-and-deposit command. The input token is
// swapped into the pool asset first unless it already is the pool asset.
type DepositRequest struct {
	Network         string
	Amount          string
	FromTokenSymbol string
}

// SwapResult is the normalized outcome returned to callers. Receipt holds the
// settlement receipt with every wide integer rendered as a decimal string.
type SwapResult struct {
	Success  bool            `json:"success"`
	Hash     string          `json:"hash,omitempty"`
	ScanLink string          `json:"scanLink,omitempty"`
	Receipt  json.RawMessage `json:"receipt,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Failure builds a failed SwapResult from an error.
func Failure(err error) *SwapResult {
	return &SwapResult{Success: false, Error: err.Error()}
}
