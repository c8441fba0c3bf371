// Package models defines data types for the risk engine.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// amountBucket is the width of the amount bucket used for fingerprinting.
// Two events with amounts in the same bucket and identical entities share
// a fingerprint and may be served from cache.
const amountBucket = 100.0

// Event is a transaction event submitted for scoring.
type Event struct {
	UserID            string  `json:"user_id"`
	DeviceID          string  `json:"device_id"`
	IPAddress         string  `json:"ip_address"`
	MerchantID        string  `json:"merchant_id"`
	CardID            string  `json:"card_id,omitempty"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// Validate checks that required fields are present and within limits.
func (e *Event) Validate() error {
	if e.UserID == "" {
		return ErrMissingUserID
	}

	if e.DeviceID == "" {
		return ErrMissingDeviceID
	}

	if e.IPAddress == "" {
		return ErrMissingIPAddress
	}

	if e.MerchantID == "" {
		return ErrMissingMerchantID
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"user_id", e.UserID},
		{"device_id", e.DeviceID},
		{"ip_address", e.IPAddress},
		{"merchant_id", e.MerchantID},
		{"card_id", e.CardID},
	} {
		if len(f.value) > 255 {
			return ErrFieldTooLong(f.name, 255)
		}
	}

	if math.IsNaN(e.TransactionAmount) || math.IsInf(e.TransactionAmount, 0) {
		return ErrInvalidAmount
	}

	if e.TransactionAmount < 0 {
		return ErrInvalidAmount
	}

	return nil
}

// Fingerprint returns a stable hash of the event's identifying fields with
// the amount bucketed, used as the result cache key.
func (e *Event) Fingerprint() string {
	bucket := int64(e.TransactionAmount / amountBucket)
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s|%s|%d",
		e.UserID, e.DeviceID, e.IPAddress, e.MerchantID, e.CardID, bucket))

	return hex.EncodeToString(h[:])
}
