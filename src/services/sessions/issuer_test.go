package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/directory"

	"github.com/stretchr/testify/suite"
)

type IssuerSuite struct {
	suite.Suite
	store  *MemoryStore
	dir    *directory.MemoryDirectory
	now    time.Time
	issuer *Issuer
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.dir = directory.NewMemoryDirectory()
	s.dir.AddEvent(models.Event{EventID: "E1", Title: "Hackathon Finals"})
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.issuer = NewIssuer(s.store, s.dir,
		WithClock(func() time.Time { return s.now }),
		WithTTLBounds(5*time.Minute, time.Hour),
	)
}

func (s *IssuerSuite) TestIssueComputesExpiry() {
	session, issued, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1", TTL: 300 * time.Second})
	s.Require().NoError(err)

	s.NotEmpty(session.SessionID)
	s.Equal(s.now.Add(300*time.Second).UnixMilli(), session.ExpiresAt)
	s.True(session.ExpiresAtMirror.Equal(session.ExpiresAtTime()))
	s.True(session.ExpiresAtTime().After(session.CreatedAt))
	s.False(session.GeoFenceEnabled)

	s.Equal(session.SessionID, issued.Payload.SessionID)
	s.Equal("E1", issued.Payload.EventID)
	s.Equal(session.ExpiresAt, issued.Payload.ExpiresAt)

	var decoded map[string]any
	s.Require().NoError(json.Unmarshal([]byte(issued.QRText), &decoded))
	s.Equal(session.SessionID, decoded["sessionId"])
	s.NotContains(decoded, "geoFenceEnabled")

	stored, err := s.store.FindByID(context.Background(), session.SessionID)
	s.Require().NoError(err)
	s.Equal("org-1", stored.IssuerID)
}

func (s *IssuerSuite) TestIssueDefaultsAndCapsTTL() {
	session, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1"})
	s.Require().NoError(err)
	s.Equal(s.now.Add(5*time.Minute).UnixMilli(), session.ExpiresAt)

	session, _, err = s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1", TTL: 48 * time.Hour})
	s.Require().NoError(err)
	s.Equal(s.now.Add(time.Hour).UnixMilli(), session.ExpiresAt)

	_, _, err = s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1", TTL: -time.Second})
	s.ErrorIs(err, ErrInvalidTTL)
}

func (s *IssuerSuite) TestIssueKeepsExpiryAfterCreation() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 999_999_000, time.UTC)

	_, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1", TTL: 500 * time.Microsecond})
	s.ErrorIs(err, ErrInvalidTTL)

	session, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", IssuerID: "org-1", TTL: time.Millisecond})
	s.Require().NoError(err)
	s.Equal(session.CreatedAt.UnixMilli()+1, session.ExpiresAt)
	s.Greater(session.ExpiresAt, session.CreatedAt.UnixMilli())
}

func (s *IssuerSuite) TestIssueWithGeofence() {
	session, issued, err := s.issuer.Issue(context.Background(), IssueParams{
		EventID:  "E1",
		IssuerID: "org-1",
		TTL:      time.Minute,
		Geofence: &models.Geofence{Latitude: 18.5, Longitude: 73.8, RadiusMeters: 200},
	})
	s.Require().NoError(err)
	s.True(session.GeoFenceEnabled)
	s.Equal(200.0, *session.GeoRadiusMeters)
	s.True(issued.Payload.GeoFenceEnabled)
	s.Contains(issued.QRText, `"geoFenceEnabled":true`)
}

func (s *IssuerSuite) TestIssueRejectsZeroRadius() {
	_, _, err := s.issuer.Issue(context.Background(), IssueParams{
		EventID:  "E1",
		Geofence: &models.Geofence{Latitude: 18.5, Longitude: 73.8},
	})
	s.ErrorIs(err, ErrInvalidGeofence)
	s.Zero(s.store.Len())
}

func (s *IssuerSuite) TestIssueUnknownEvent() {
	_, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "missing"})
	s.ErrorIs(err, ErrEventNotFound)
}

func (s *IssuerSuite) TestMultipleLiveSessionsPerEvent() {
	first, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", TTL: time.Minute})
	s.Require().NoError(err)
	second, _, err := s.issuer.Issue(context.Background(), IssueParams{EventID: "E1", TTL: 2 * time.Minute})
	s.Require().NoError(err)
	s.NotEqual(first.SessionID, second.SessionID)

	active, err := s.issuer.ListActive(context.Background(), "E1")
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(second.SessionID, active[0].SessionID)

	s.now = s.now.Add(90 * time.Second)
	active, err = s.issuer.ListActive(context.Background(), "E1")
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(second.SessionID, active[0].SessionID)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Create(context.Context, *models.Session) error {
	return errors.New("mongo: connection refused")
}

func (s *IssuerSuite) TestIssuePropagatesStoreFailure() {
	issuer := NewIssuer(&failingStore{}, s.dir)
	_, _, err := issuer.Issue(context.Background(), IssueParams{EventID: "E1"})
	s.Error(err)
}
