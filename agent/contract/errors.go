package contract

import "errors"

var (
	// ErrInvalidInput marks a caller fault: empty or malformed request data.
	// It is the only error allowed to surface raw at the inbound boundary.
	ErrInvalidInput = errors.New("invalid input")

	ErrUnknownCategory    = errors.New("unknown vehicle category")
	ErrPricingUnavailable = errors.New("pricing unavailable")

	ErrBackendUnavailable = errors.New("completion backend unavailable")
	ErrBackendTimeout     = errors.New("completion backend timed out")

	// ErrMalformedToolCall means the backend requested the quotation tool
	// with missing or invalid arguments. Treated as an incomplete-slot
	// situation, not a turn failure.
	ErrMalformedToolCall = errors.New("malformed tool call")
)
