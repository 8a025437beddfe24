// Package sessions issues, stores and reaps attendance sessions.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"Backend-Attendance/src/models"

	"github.com/google/uuid"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrInvalidGeofence = errors.New("geofence radius must be greater than zero")
	ErrInvalidTTL      = errors.New("ttl must be at least one millisecond")
)

// EventLookup is the subset of the directory the issuer needs.
type EventLookup interface {
	FindEvent(ctx context.Context, eventID string) (*models.Event, error)
}

// IssueParams are the inputs of a single Issue call.
type IssueParams struct {
	EventID  string
	IssuerID string
	TTL      time.Duration
	Geofence *models.Geofence
}

// Issuer creates sessions. It never touches other sessions of the same event:
// several live sessions per event are allowed (one per checkpoint).
type Issuer struct {
	store      Store
	events     EventLookup
	now        func() time.Time
	newID      func() string
	defaultTTL time.Duration
	maxTTL     time.Duration
}

type IssuerOption func(*Issuer)

func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func WithIDGenerator(gen func() string) IssuerOption {
	return func(i *Issuer) { i.newID = gen }
}

// WithTTLBounds sets the TTL used when none is requested and the upper cap.
func WithTTLBounds(defaultTTL, maxTTL time.Duration) IssuerOption {
	return func(i *Issuer) {
		if defaultTTL > 0 {
			i.defaultTTL = defaultTTL
		}
		if maxTTL > 0 {
			i.maxTTL = maxTTL
		}
	}
}

func NewIssuer(store Store, events EventLookup, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		store:      store,
		events:     events,
		now:        time.Now,
		newID:      uuid.NewString,
		defaultTTL: 5 * time.Minute,
		maxTTL:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue persists a new session and returns its QR payload.
func (i *Issuer) Issue(ctx context.Context, p IssueParams) (*models.Session, *models.IssuedSession, error) {
	if i.events != nil {
		if _, err := i.events.FindEvent(ctx, p.EventID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, nil, ErrEventNotFound
			}
			return nil, nil, fmt.Errorf("lookup event: %w", err)
		}
	}

	ttl := p.TTL
	if ttl == 0 {
		ttl = i.defaultTTL
	}
	// expiry is stored in whole milliseconds and must land after createdAt
	if ttl < time.Millisecond {
		return nil, nil, ErrInvalidTTL
	}
	if ttl > i.maxTTL {
		ttl = i.maxTTL
	}

	now := i.now().Truncate(time.Millisecond)
	expiresAt := now.Add(ttl)
	session := &models.Session{
		SessionID:       i.newID(),
		EventID:         p.EventID,
		IssuerID:        p.IssuerID,
		CreatedAt:       now,
		ExpiresAt:       expiresAt.UnixMilli(),
		ExpiresAtMirror: time.UnixMilli(expiresAt.UnixMilli()).UTC(),
	}

	if g := p.Geofence; g != nil {
		if g.RadiusMeters <= 0 {
			return nil, nil, ErrInvalidGeofence
		}
		lat, lon, radius := g.Latitude, g.Longitude, g.RadiusMeters
		session.GeoFenceEnabled = true
		session.GeoLatitude = &lat
		session.GeoLongitude = &lon
		session.GeoRadiusMeters = &radius
	}

	if err := i.store.Create(ctx, session); err != nil {
		log.Printf("❌ [IssueSession] Failed to persist: eventId=%s err=%v", p.EventID, err)
		return nil, nil, err
	}

	payload := PayloadFor(session)
	text, err := EncodePayload(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payload: %w", err)
	}

	log.Printf("✅ [IssueSession] Created: sessionId=%s eventId=%s ttl=%s geofence=%t",
		session.SessionID, session.EventID, ttl, session.GeoFenceEnabled)
	return session, &models.IssuedSession{Payload: payload, QRText: text}, nil
}

// Get returns a session by id regardless of expiry.
func (i *Issuer) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return i.store.FindByID(ctx, sessionID)
}

// ListActive returns the live sessions of an event, newest expiry first.
func (i *Issuer) ListActive(ctx context.Context, eventID string) ([]models.Session, error) {
	return i.store.ListActiveByEvent(ctx, eventID, i.now())
}

// Now exposes the issuer's clock to handlers that must agree with it.
func (i *Issuer) Now() time.Time {
	return i.now()
}
