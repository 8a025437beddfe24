package models

import "time"

// ScanCode is the discriminant of a scan outcome.
type ScanCode string

const (
	CodeOK               ScanCode = "OK"
	CodeInvalidQR        ScanCode = "INVALID_QR"
	CodeExpiredQR        ScanCode = "EXPIRED_QR"
	CodeOutOfRange       ScanCode = "OUT_OF_RANGE"
	CodeLocationRequired ScanCode = "LOCATION_REQUIRED"
	CodeAlreadyMarked    ScanCode = "ALREADY_MARKED"
	CodeNoIdentity       ScanCode = "NO_IDENTITY"
	CodeNetworkError     ScanCode = "NETWORK_ERROR"
)

// Retryable reports whether a client may safely resubmit after this code.
// Only transient failures are; every other code needs a new scan, a new
// session, re-authentication, or nothing at all.
func (c ScanCode) Retryable() bool {
	return c == CodeNetworkError
}

// ScanRequest is submitted by the Scan Client. Participant identity comes from
// the bearer token, never from the body.
type ScanRequest struct {
	EventID   string   `json:"eventId"`
	SessionID string   `json:"sessionId"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ScanData is attached to OK and ALREADY_MARKED results.
type ScanData struct {
	ParticipantName string    `json:"participantName"`
	EventTitle      string    `json:"eventTitle"`
	ScannedAt       time.Time `json:"scannedAt"`
}

// ScanResult is the discriminated outcome returned to the Scan Client.
type ScanResult struct {
	Success bool      `json:"success"`
	Code    ScanCode  `json:"code"`
	Message string    `json:"message"`
	Data    *ScanData `json:"data,omitempty"`
}

// NewScanFailure builds a non-success result.
func NewScanFailure(code ScanCode, message string) ScanResult {
	return ScanResult{Success: false, Code: code, Message: message}
}
