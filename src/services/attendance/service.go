// Package attendance validates scans and records attendance exactly once per
// participant and event.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/directory"
	"Backend-Attendance/src/services/geofence"
)

var (
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrReasonRequired = errors.New("invalidation reason is required")
)

// SessionFinder is the read side of the session store.
type SessionFinder interface {
	FindByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TeamLookup finds the team a participant belongs to for an event.
type TeamLookup interface {
	FindByMember(ctx context.Context, eventID, participantID string) (*models.Team, error)
}

// Dispatcher schedules a team recount outside the request path.
type Dispatcher interface {
	DispatchTeamRecompute(ctx context.Context, eventID, teamID string) error
}

// Recorder receives scan outcomes for metrics. May be nil.
type Recorder interface {
	ObserveScan(code models.ScanCode, elapsed time.Duration)
}

// Service is the attendance marking pipeline. It holds no per-request state
// and takes no locks; concurrent duplicates are settled by the Ledger.
type Service struct {
	sessions        SessionFinder
	ledger          Ledger
	directory       directory.Directory
	teams           TeamLookup
	dispatcher      Dispatcher
	recorder        Recorder
	now             func() time.Time
	dispatchTimeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTeams(teams TeamLookup, dispatcher Dispatcher) Option {
	return func(s *Service) {
		s.teams = teams
		s.dispatcher = dispatcher
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(sessions SessionFinder, ledger Ledger, dir directory.Directory, opts ...Option) *Service {
	s := &Service{
		sessions:        sessions,
		ledger:          ledger,
		directory:       dir,
		now:             time.Now,
		dispatchTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mark runs the validation pipeline for one scan. Every gate fails fast and
// nothing is written before the ledger insert.
func (s *Service) Mark(ctx context.Context, participantID string, req models.ScanRequest) models.ScanResult {
	start := time.Now()
	result := s.mark(ctx, strings.TrimSpace(participantID), req)
	if s.recorder != nil {
		s.recorder.ObserveScan(result.Code, time.Since(start))
	}
	return result
}

func (s *Service) mark(ctx context.Context, participantID string, req models.ScanRequest) models.ScanResult {
	// 1. identity
	if participantID == "" {
		return models.NewScanFailure(models.CodeNoIdentity, "Sign in again to mark attendance")
	}

	// 2. session lookup and expiry against the server clock
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return models.NewScanFailure(models.CodeInvalidQR, "QR code is not valid, please scan a fresh code")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("❌ [MarkAttendance] Unknown session: %s", sessionID)
		return models.NewScanFailure(models.CodeInvalidQR, "QR code is not valid, please scan a fresh code")
	}
	if err != nil {
		return s.transient("session lookup", err)
	}
	if eventID := strings.TrimSpace(req.EventID); eventID != "" && eventID != session.EventID {
		log.Printf("❌ [MarkAttendance] Event mismatch: session=%s payloadEvent=%s", sessionID, eventID)
		return models.NewScanFailure(models.CodeInvalidQR, "QR code does not belong to this event")
	}
	if session.ExpiredAt(s.now()) {
		return models.NewScanFailure(models.CodeExpiredQR, "QR code has expired, ask the organizer for a new one")
	}

	// 3. geofence
	if session.GeoFenceEnabled {
		if !geofence.Complete(session) {
			log.Printf("❌ [MarkAttendance] Session %s is fenced without a center or radius", sessionID)
			return models.NewScanFailure(models.CodeInvalidQR, "QR code is not valid, please scan a fresh code")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return models.NewScanFailure(models.CodeLocationRequired, "Location access is required for this event")
		}
		if !geofence.ValidCoordinate(*req.Latitude, *req.Longitude) {
			return models.NewScanFailure(models.CodeLocationRequired, "Reported location is not valid")
		}
		eval := geofence.Evaluate(session, *req.Latitude, *req.Longitude)
		if !eval.Within {
			log.Printf("❌ [MarkAttendance] Out of range: participant=%s session=%s distance=%.0fm", participantID, sessionID, eval.DistanceMeters)
			return models.NewScanFailure(models.CodeOutOfRange,
				fmt.Sprintf("You are %.0f m from the venue, move closer and scan again", eval.DistanceMeters))
		}
	}

	// 4. existing record
	existing, err := s.ledger.Find(ctx, participantID, session.EventID)
	if err == nil {
		return s.alreadyMarked(ctx, existing)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return s.transient("attendance probe", err)
	}

	var teamID *string
	if s.teams != nil {
		team, err := s.teams.FindByMember(ctx, session.EventID, participantID)
		switch {
		case err == nil:
			id := team.TeamID
			teamID = &id
		case !errors.Is(err, models.ErrNotFound):
			return s.transient("team lookup", err)
		}
	}

	// 5. insert; the server clock at write time is authoritative
	writeAt := s.now()
	if session.ExpiredAt(writeAt) {
		return models.NewScanFailure(models.CodeExpiredQR, "QR code has expired, ask the organizer for a new one")
	}
	sid := session.SessionID
	record := &models.AttendanceRecord{
		ParticipantID: participantID,
		EventID:       session.EventID,
		SessionID:     &sid,
		TeamID:        teamID,
		Status:        models.StatusPresent,
		ScannedAt:     writeAt.UTC().Truncate(time.Millisecond),
		IsValid:       true,
	}
	stored, created, err := s.ledger.InsertOrGetExisting(ctx, record)
	if err != nil {
		return s.transient("attendance insert", err)
	}
	if !created {
		return s.alreadyMarked(ctx, stored)
	}

	// 6. fire-and-forget team recount
	if teamID != nil {
		s.dispatchRecompute(stored.EventID, *teamID)
	}

	log.Printf("✅ [MarkAttendance] participant=%s event=%s session=%s", participantID, stored.EventID, sid)
	return models.ScanResult{
		Success: true,
		Code:    models.CodeOK,
		Message: "Attendance marked",
		Data:    s.describe(ctx, stored),
	}
}

func (s *Service) alreadyMarked(ctx context.Context, rec *models.AttendanceRecord) models.ScanResult {
	return models.ScanResult{
		Success: false,
		Code:    models.CodeAlreadyMarked,
		Message: "Attendance was already marked for this event",
		Data:    s.describe(ctx, rec),
	}
}

func (s *Service) transient(step string, err error) models.ScanResult {
	log.Printf("❌ [MarkAttendance] %s failed: %v", step, err)
	return models.NewScanFailure(models.CodeNetworkError, "Service temporarily unavailable, please retry")
}

// describe fills display fields. Lookups are best-effort: the record is
// already decided, so a missing profile falls back to ids.
func (s *Service) describe(ctx context.Context, rec *models.AttendanceRecord) *models.ScanData {
	data := &models.ScanData{
		ParticipantName: rec.ParticipantID,
		EventTitle:      rec.EventID,
		ScannedAt:       rec.ScannedAt,
	}
	if s.directory == nil {
		return data
	}
	if p, err := s.directory.FindParticipant(ctx, rec.ParticipantID); err == nil && p.Name != "" {
		data.ParticipantName = p.Name
	}
	if ev, err := s.directory.FindEvent(ctx, rec.EventID); err == nil && ev.Title != "" {
		data.EventTitle = ev.Title
	}
	return data
}

func (s *Service) dispatchRecompute(eventID, teamID string) {
	if s.dispatcher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()
		if err := s.dispatcher.DispatchTeamRecompute(ctx, eventID, teamID); err != nil {
			log.Printf("⚠️ [MarkAttendance] Team recompute dispatch failed: event=%s team=%s err=%v", eventID, teamID, err)
		}
	}()
}

// Invalidate soft-invalidates a record on behalf of an auditor. The record
// stays in the ledger and keeps its uniqueness slot.
func (s *Service) Invalidate(ctx context.Context, auditorID, eventID, participantID, reason string) (*models.AttendanceRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	rec, err := s.ledger.Invalidate(ctx, participantID, eventID, auditorID, reason, s.now().UTC())
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Printf("🛑 [InvalidateAttendance] participant=%s event=%s by=%s", participantID, eventID, auditorID)
	if rec.TeamID != nil {
		s.dispatchRecompute(rec.EventID, *rec.TeamID)
	}
	return rec, nil
}

// Get returns a participant's record for an event.
func (s *Service) Get(ctx context.Context, participantID, eventID string) (*models.AttendanceRecord, error) {
	rec, err := s.ledger.Find(ctx, participantID, eventID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

// ListByEvent pages through an event's attendance.
func (s *Service) ListByEvent(ctx context.Context, eventID string, params models.PaginationParams) (*models.PaginatedResponse, error) {
	params.Normalize()
	records, total, err := s.ledger.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, err
	}
	return models.NewPaginatedResponse(records, total, params), nil
}
