// Package scanner is the device side of attendance: it samples camera frames,
// decodes the first QR code it sees and submits it for marking.
package scanner

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"Backend-Attendance/src/models"
)

var (
	// ErrNoFrame means the source has nothing new yet; the loop waits for the
	// next tick.
	ErrNoFrame = errors.New("no frame available")
	// ErrNoCode means a frame held no readable QR code.
	ErrNoCode = errors.New("no QR code in frame")

	ErrAlreadyRunning = errors.New("scanner is already running")
	ErrStopped        = errors.New("scanner has been stopped")
)

// FrameSource is a camera. Close releases the device.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

type Decoder interface {
	Decode(img image.Image) (string, error)
}

// Submitter sends a scan to the server. A non-nil error means no server
// verdict was received.
type Submitter interface {
	Submit(ctx context.Context, req models.ScanRequest) (models.ScanResult, error)
}

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// Result is the outcome of one scan attempt.
type Result struct {
	Code      models.ScanCode
	Message   string
	Data      *models.ScanData
	Retryable bool
	// Local is set when the device decided without asking the server.
	Local bool
}

func (r Result) Success() bool { return r.Code == models.CodeOK }

type Option func(*Scanner)

// WithInterval sets the frame sampling period.
func WithInterval(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLocator(l Locator) Option {
	return func(s *Scanner) { s.locator = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// Scanner runs one decode loop at a time. After a terminal result, or after
// Stop, the camera is released and the Scanner cannot run again.
type Scanner struct {
	source    FrameSource
	decoder   Decoder
	submitter Submitter
	locator   Locator
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	running  bool
	released bool
}

func New(source FrameSource, decoder Decoder, submitter Submitter, opts ...Option) *Scanner {
	s := &Scanner{
		source:    source,
		decoder:   decoder,
		submitter: submitter,
		interval:  250 * time.Millisecond,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run samples frames until one decodes, then stops decoding and submits that
// payload once. Transient failures leave the camera open so the caller can
// call Run again; every other outcome releases it.
func (s *Scanner) Run(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	switch {
	case s.released:
		s.mu.Unlock()
		return Result{}, ErrStopped
	case s.running:
		s.mu.Unlock()
		return Result{}, ErrAlreadyRunning
	}
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	text, err := s.decodeLoop(ctx)
	if err != nil {
		s.release()
		return Result{}, err
	}

	res := s.handle(ctx, text)
	if !res.Retryable {
		s.release()
	}
	return res, nil
}

// Stop cancels a running loop and releases the camera. Safe to call at any time.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.release()
}

func (s *Scanner) decodeLoop(ctx context.Context) (string, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		frame, err := s.source.Next(ctx)
		if errors.Is(err, ErrNoFrame) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}

		text, err := s.decoder.Decode(frame)
		if err != nil {
			continue
		}
		// first decode wins; the ticker is stopped on return
		return text, nil
	}
}

func (s *Scanner) handle(ctx context.Context, text string) Result {
	payload, err := ParsePayload(text)
	if err != nil {
		log.Printf("❌ [Scanner] Unreadable payload: %v", err)
		return localResult(models.CodeInvalidQR, "QR code is not valid, please scan a fresh code")
	}
	if payload.ExpiredAt(s.now().UnixMilli()) {
		return localResult(models.CodeExpiredQR, "QR code has expired, ask the organizer for a new one")
	}

	req := models.ScanRequest{EventID: payload.EventID, SessionID: payload.SessionID}
	switch {
	case payload.GeoFenceEnabled:
		if s.locator == nil {
			return localResult(models.CodeLocationRequired, "Location access is required for this event")
		}
		lat, lon, err := s.locator.Locate(ctx)
		if err != nil {
			log.Printf("⚠️ [Scanner] Location unavailable: %v", err)
			return localResult(models.CodeLocationRequired, "Location access is required for this event")
		}
		req.Latitude, req.Longitude = &lat, &lon
	case payload.Kind == KindBareID && s.locator != nil:
		// fence unknown; attach a position when one is handy
		if lat, lon, err := s.locator.Locate(ctx); err == nil {
			req.Latitude, req.Longitude = &lat, &lon
		}
	}

	out, err := s.submitter.Submit(ctx, req)
	if err != nil {
		log.Printf("⚠️ [Scanner] Submit failed: %v", err)
		return Result{
			Code:      models.CodeNetworkError,
			Message:   "Could not reach the server, tap to retry",
			Retryable: true,
		}
	}

	log.Printf("📷 [Scanner] session=%s kind=%s code=%s", payload.SessionID, payload.Kind, out.Code)
	return Result{
		Code:      out.Code,
		Message:   out.Message,
		Data:      out.Data,
		Retryable: out.Code.Retryable(),
	}
}

func localResult(code models.ScanCode, msg string) Result {
	return Result{Code: code, Message: msg, Local: true}
}

func (s *Scanner) release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	if err := s.source.Close(); err != nil {
		log.Printf("⚠️ [Scanner] Camera release failed: %v", err)
	}
}
