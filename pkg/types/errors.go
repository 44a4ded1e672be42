package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the swap pipeline. Callers classify failures
// with errors.Is/errors.As; every stage wraps these with the token, chain or
// stage that produced them.
var (
	// ErrTokenNotSupported indicates a symbol that the aggregator does not
	// list on the requested chain.
	ErrTokenNotSupported = errors.New("token not supported")

	// ErrNoRouteFound indicates the aggregator returned zero routes for the
	// requested pair.
	ErrNoRouteFound = errors.New("no route found")

	// ErrNoTokens indicates the aggregator has no registered tokens for the
	// requested chain.
	ErrNoTokens = errors.New("no tokens registered")

	// ErrExecutionRejected indicates the execution service cannot satisfy
	// the trigger or fee-token constraint.
	ErrExecutionRejected = errors.New("execution rejected")
)

// UpstreamError is a non-success response from the aggregator or the
// execution service.
type UpstreamError struct {
	Service string // "okx" or "mee"
	Status  int    // HTTP status, 0 if the envelope itself failed
	Code    string // protocol-level code, "" for plain HTTP failures
	Msg     string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error: code %s: %s", e.Service, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.Status, e.Msg)
}

// SerializationError reports a value that cannot cross the outward JSON
// boundary without precision loss.
type SerializationError struct {
	Value  string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s: %s", e.Value, e.Reason)
}
