package scanner

import (
	"errors"
	"strings"
	"unicode"

	"Backend-Attendance/src/models"

	"github.com/bytedance/sonic"
)

// PayloadKind tags how the decoded text was interpreted.
type PayloadKind int

const (
	// KindJSON is a full session payload.
	KindJSON PayloadKind = iota + 1
	// KindBareID is a raw identifier printed into the code; it is submitted
	// as the session id and carries no expiry or fence hints.
	KindBareID
)

func (k PayloadKind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindBareID:
		return "bare-id"
	default:
		return "unknown"
	}
}

const maxBareIDLength = 128

var (
	ErrEmptyPayload     = errors.New("decoded text is empty")
	ErrMalformedPayload = errors.New("decoded text is not a session payload")
)

// Payload is the parsed content of a scanned code.
type Payload struct {
	Kind            PayloadKind
	SessionID       string
	EventID         string
	ExpiresAt       int64
	GeoFenceEnabled bool
}

// ParsePayload accepts a JSON session payload or a bare identifier. Text that
// starts like JSON but fails to parse is rejected rather than reinterpreted.
func ParsePayload(text string) (Payload, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Payload{}, ErrEmptyPayload
	}

	if strings.HasPrefix(raw, "{") {
		var p models.SessionPayload
		if err := sonic.UnmarshalString(raw, &p); err != nil {
			return Payload{}, ErrMalformedPayload
		}
		if strings.TrimSpace(p.SessionID) == "" {
			return Payload{}, ErrMalformedPayload
		}
		return Payload{
			Kind:            KindJSON,
			SessionID:       strings.TrimSpace(p.SessionID),
			EventID:         strings.TrimSpace(p.EventID),
			ExpiresAt:       p.ExpiresAt,
			GeoFenceEnabled: p.GeoFenceEnabled,
		}, nil
	}

	if len(raw) > maxBareIDLength || strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return Payload{}, ErrMalformedPayload
	}
	return Payload{Kind: KindBareID, SessionID: raw}, nil
}

// ExpiredAt reports whether the embedded expiry has passed on the device
// clock. Bare ids never expire locally.
func (p Payload) ExpiredAt(nowMillis int64) bool {
	return p.Kind == KindJSON && p.ExpiresAt > 0 && nowMillis >= p.ExpiresAt
}
