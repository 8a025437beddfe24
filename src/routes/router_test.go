package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"Backend-Attendance/src/controllers"
	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/attendance"
	"Backend-Attendance/src/services/directory"
	"Backend-Attendance/src/services/sessions"
	"Backend-Attendance/src/services/teams"
	"Backend-Attendance/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type inlineDispatcher struct {
	agg *teams.Aggregator
	wg  *sync.WaitGroup
}

func (d inlineDispatcher) DispatchTeamRecompute(ctx context.Context, eventID, teamID string) error {
	defer d.wg.Done()
	_, err := d.agg.Recompute(ctx, eventID, teamID)
	return err
}

type APISuite struct {
	suite.Suite

	app     *fiber.App
	tokens  *utils.TokenManager
	now     time.Time
	mu      sync.Mutex
	pending sync.WaitGroup
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *APISuite) advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

func (s *APISuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.tokens = utils.NewTokenManager("test-secret", time.Hour)

	dir := directory.NewMemoryDirectory()
	dir.AddEvent(models.Event{EventID: "E1", Title: "Hackathon"})
	dir.AddParticipant(models.Participant{ParticipantID: "A", Name: "Alice"})

	store := sessions.NewMemoryStore()
	ledger := attendance.NewMemoryLedger()
	teamStore := teams.NewMemoryStore()
	agg := teams.NewAggregator(teamStore, ledger, teamStore)

	issuer := sessions.NewIssuer(store, dir, sessions.WithClock(s.clock))
	marker := attendance.NewService(store, ledger, dir,
		attendance.WithClock(s.clock),
		attendance.WithTeams(teamStore, inlineDispatcher{agg: agg, wg: &s.pending}))

	s.app = fiber.New()
	InitRoutes(s.app, Deps{
		Tokens:                 s.tokens,
		Sessions:               controllers.NewSessionController(issuer, nil),
		Attendance:             controllers.NewAttendanceController(marker),
		Teams:                  controllers.NewTeamController(teams.NewRegistry(teamStore, dir), agg),
		ScanRateLimitPerMinute: 1000,
	})
}

func (s *APISuite) token(userID, role string) string {
	tok, err := s.tokens.Generate(userID, userID+"@example.com", role)
	s.Require().NoError(err)
	return tok
}

func (s *APISuite) do(method, path, token string, body interface{}) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type issueResponse struct {
	Data struct {
		Session models.Session       `json:"session"`
		QR      models.IssuedSession `json:"qr"`
	} `json:"data"`
}

func (s *APISuite) issue(body models.IssueSessionRequest) models.Session {
	resp := s.do("POST", "/api/sessions", s.token("org", utils.RoleOrganizer), body)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	out := decode[issueResponse](s.T(), resp)
	s.Equal(out.Data.Session.SessionID, out.Data.QR.Payload.SessionID)
	return out.Data.Session
}

func (s *APISuite) TestScanFlow() {
	session := s.issue(models.IssueSessionRequest{EventID: "E1", TTLSeconds: 300})
	participant := s.token("A", utils.RoleParticipant)
	scan := models.ScanRequest{EventID: "E1", SessionID: session.SessionID}

	s.advance(60 * time.Second)
	resp := s.do("POST", "/api/attendance/scan", participant, scan)
	s.Equal(fiber.StatusCreated, resp.StatusCode)
	ok := decode[models.ScanResult](s.T(), resp)
	s.True(ok.Success)
	s.Equal("Alice", ok.Data.ParticipantName)

	s.advance(30 * time.Second)
	resp = s.do("POST", "/api/attendance/scan", participant, scan)
	s.Equal(fiber.StatusConflict, resp.StatusCode)
	dup := decode[models.ScanResult](s.T(), resp)
	s.Equal(models.CodeAlreadyMarked, dup.Code)
	s.True(dup.Data.ScannedAt.Equal(ok.Data.ScannedAt))

	resp = s.do("GET", "/api/attendance/me/E1", participant, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	s.advance(220 * time.Second)
	resp = s.do("POST", "/api/attendance/scan", s.token("B", utils.RoleParticipant), scan)
	s.Equal(fiber.StatusGone, resp.StatusCode)
	s.Equal(models.CodeExpiredQR, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestScanWithoutIdentity() {
	session := s.issue(models.IssueSessionRequest{EventID: "E1"})

	resp := s.do("POST", "/api/attendance/scan", "", models.ScanRequest{SessionID: session.SessionID})
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal(models.CodeNoIdentity, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestScanMalformedBody() {
	req := httptest.NewRequest("POST", "/api/attendance/scan", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token("A", utils.RoleParticipant))
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal(models.CodeInvalidQR, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestGeofencedScan() {
	session := s.issue(models.IssueSessionRequest{EventID: "E1", Geofence: &models.Geofence{Latitude: 18.5, Longitude: 73.8, RadiusMeters: 200}})
	participant := s.token("A", utils.RoleParticipant)

	resp := s.do("POST", "/api/attendance/scan", participant, models.ScanRequest{SessionID: session.SessionID})
	s.Equal(fiber.StatusPreconditionRequired, resp.StatusCode)

	lat, lon := 18.545, 73.8
	resp = s.do("POST", "/api/attendance/scan", participant, models.ScanRequest{SessionID: session.SessionID, Latitude: &lat, Longitude: &lon})
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	s.Equal(models.CodeOutOfRange, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestScanBadCoordinatesFollowGateOrder() {
	lat, lon := 95.0, 10.0
	open := s.issue(models.IssueSessionRequest{EventID: "E1"})
	fenced := s.issue(models.IssueSessionRequest{EventID: "E1", Geofence: &models.Geofence{Latitude: 18.5, Longitude: 73.8, RadiusMeters: 200}})

	resp := s.do("POST", "/api/attendance/scan", "", models.ScanRequest{SessionID: "unknown", Latitude: &lat, Longitude: &lon})
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal(models.CodeNoIdentity, decode[models.ScanResult](s.T(), resp).Code)

	resp = s.do("POST", "/api/attendance/scan", s.token("A", utils.RoleParticipant), models.ScanRequest{SessionID: "unknown", Latitude: &lat, Longitude: &lon})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal(models.CodeInvalidQR, decode[models.ScanResult](s.T(), resp).Code)

	resp = s.do("POST", "/api/attendance/scan", s.token("B", utils.RoleParticipant), models.ScanRequest{SessionID: fenced.SessionID, Latitude: &lat, Longitude: &lon})
	s.Equal(fiber.StatusPreconditionRequired, resp.StatusCode)
	s.Equal(models.CodeLocationRequired, decode[models.ScanResult](s.T(), resp).Code)

	resp = s.do("POST", "/api/attendance/scan", s.token("A", utils.RoleParticipant), models.ScanRequest{SessionID: open.SessionID, Latitude: &lat, Longitude: &lon})
	s.Equal(fiber.StatusCreated, resp.StatusCode)
	s.Equal(models.CodeOK, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestScanMalformedBodyWithoutIdentity() {
	req := httptest.NewRequest("POST", "/api/attendance/scan", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal(models.CodeNoIdentity, decode[models.ScanResult](s.T(), resp).Code)
}

func (s *APISuite) TestIssueSessionGuards() {
	body := models.IssueSessionRequest{EventID: "E1"}

	resp := s.do("POST", "/api/sessions", "", body)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)

	resp = s.do("POST", "/api/sessions", s.token("A", utils.RoleParticipant), body)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)

	resp = s.do("POST", "/api/sessions", s.token("org", utils.RoleOrganizer), models.IssueSessionRequest{})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	resp = s.do("POST", "/api/sessions", s.token("org", utils.RoleOrganizer), models.IssueSessionRequest{EventID: "E404"})
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp = s.do("POST", "/api/sessions", s.token("org", utils.RoleOrganizer),
		models.IssueSessionRequest{EventID: "E1", Geofence: &models.Geofence{Latitude: 1, Longitude: 1}})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestSessionQRCodeAndListing() {
	session := s.issue(models.IssueSessionRequest{EventID: "E1", TTLSeconds: 60})
	s.issue(models.IssueSessionRequest{EventID: "E1", TTLSeconds: 600})
	org := s.token("org", utils.RoleOrganizer)

	resp := s.do("GET", "/api/sessions/"+session.SessionID+"/qr.png", org, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("image/png", resp.Header.Get("Content-Type"))
	_, err := png.Decode(resp.Body)
	s.NoError(err)

	resp = s.do("GET", "/api/events/E1/sessions", org, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	list := decode[struct {
		Total int `json:"total"`
	}](s.T(), resp)
	s.Equal(2, list.Total)

	s.advance(2 * time.Minute)
	resp = s.do("GET", "/api/sessions/"+session.SessionID+"/qr.png", org, nil)
	s.Equal(fiber.StatusGone, resp.StatusCode)

	resp = s.do("GET", "/api/sessions/"+session.SessionID, org, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	view := decode[struct {
		Data struct {
			Expired bool `json:"expired"`
		} `json:"data"`
	}](s.T(), resp)
	s.True(view.Data.Expired)

	resp = s.do("GET", "/api/sessions/missing", org, nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestInvalidateAndList() {
	session := s.issue(models.IssueSessionRequest{EventID: "E1"})
	s.Require().Equal(fiber.StatusCreated,
		s.do("POST", "/api/attendance/scan", s.token("A", utils.RoleParticipant), models.ScanRequest{SessionID: session.SessionID}).StatusCode)

	path := "/api/attendance/E1/A/invalidate"
	s.Equal(fiber.StatusForbidden, s.do("POST", path, s.token("org", utils.RoleOrganizer), models.InvalidateRequest{Reason: "x"}).StatusCode)

	auditor := s.token("aud", utils.RoleAuditor)
	s.Equal(fiber.StatusBadRequest, s.do("POST", path, auditor, models.InvalidateRequest{}).StatusCode)
	s.Equal(fiber.StatusNotFound, s.do("POST", "/api/attendance/E1/Z/invalidate", auditor, models.InvalidateRequest{Reason: "x"}).StatusCode)

	resp := s.do("POST", path, auditor, models.InvalidateRequest{Reason: "proxy scan"})
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.do("GET", "/api/events/E1/attendance?limit=10", auditor, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	page := decode[struct {
		Data  []models.AttendanceRecord `json:"data"`
		Total int64                     `json:"total"`
	}](s.T(), resp)
	s.EqualValues(1, page.Total)
	s.False(page.Data[0].IsValid)
}

func (s *APISuite) TestTeamRegistrationAndSummary() {
	member := s.token("D", utils.RoleParticipant)
	body := models.RegisterTeamRequest{TeamName: "T1", EventID: "E1", CaptainID: "D", Members: []string{"D", "E"}, TotalMembers: 2}

	resp := s.do("POST", "/api/teams", member, body)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	created := decode[struct {
		Data models.Team `json:"data"`
	}](s.T(), resp)

	s.Equal(fiber.StatusConflict, s.do("POST", "/api/teams", member, body).StatusCode)

	bad := body
	bad.TeamName, bad.TotalMembers = "T2", 3
	s.Equal(fiber.StatusBadRequest, s.do("POST", "/api/teams", member, bad).StatusCode)

	session := s.issue(models.IssueSessionRequest{EventID: "E1"})
	for _, p := range []string{"D", "E"} {
		s.pending.Add(1)
		resp := s.do("POST", "/api/attendance/scan", s.token(p, utils.RoleParticipant), models.ScanRequest{SessionID: session.SessionID})
		s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	}
	s.pending.Wait()

	resp = s.do("GET", "/api/events/E1/teams/"+created.Data.TeamID+"/attendance", member, nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	summary := decode[struct {
		Data models.TeamAttendanceSummary `json:"data"`
	}](s.T(), resp)
	s.Equal(2, summary.Data.MembersPresent)
	s.Equal(100, summary.Data.AttendancePercentage)

	s.Equal(fiber.StatusNotFound, s.do("GET", "/api/events/E2/teams/"+created.Data.TeamID+"/attendance", member, nil).StatusCode)
}

func (s *APISuite) TestHealth() {
	resp := s.do("GET", "/health", "", nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
}
