package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for event validation.
var (
	ErrMissingUserID     = errors.New("user_id is required")
	ErrMissingDeviceID   = errors.New("device_id is required")
	ErrMissingIPAddress  = errors.New("ip_address is required")
	ErrMissingMerchantID = errors.New("merchant_id is required")
	ErrInvalidAmount     = errors.New("transaction_amount must be a non-negative number")
)

// Sentinel errors for admission control.
var (
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// ErrInvariant indicates an internal invariant violation (maps to HTTP 500).
var ErrInvariant = errors.New("internal invariant violation")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
