package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"Backend-Attendance/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	frames []image.Image
	closed int
}

func newFakeSource(frames ...image.Image) *fakeSource {
	return &fakeSource{frames: frames}
}

func (f *fakeSource) Next(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil, ErrNoFrame
	}
	img := f.frames[0]
	f.frames = f.frames[1:]
	return img, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDecoder maps frames to decoded text; unknown frames hold no code.
type fakeDecoder map[image.Image]string

func (d fakeDecoder) Decode(img image.Image) (string, error) {
	if text, ok := d[img]; ok {
		return text, nil
	}
	return "", ErrNoCode
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req models.ScanRequest) (models.ScanResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.ScanResult), args.Error(1)
}

type fixedLocator struct {
	lat, lon float64
	err      error
}

func (l fixedLocator) Locate(context.Context) (float64, float64, error) {
	return l.lat, l.lon, l.err
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func frame() image.Image { return image.NewGray(image.Rect(0, 0, 1, 1)) }

func newTestScanner(src *fakeSource, dec fakeDecoder, sub Submitter, opts ...Option) *Scanner {
	opts = append([]Option{WithInterval(time.Millisecond), WithClock(func() time.Time { return base })}, opts...)
	return New(src, dec, sub, opts...)
}

func okResult() models.ScanResult {
	return models.ScanResult{Success: true, Code: models.CodeOK, Message: "Attendance marked",
		Data: &models.ScanData{ParticipantName: "Alice", EventTitle: "Hackathon", ScannedAt: base}}
}

func TestRunSubmitsFirstDecodeOnce(t *testing.T) {
	blank, first, second := frame(), frame(), frame()
	payload := `{"sessionId":"s-1","eventId":"e-1","expiresAt":` + itoa(base.Add(time.Minute).UnixMilli()) + `}`
	src := newFakeSource(blank, first, second)
	dec := fakeDecoder{first: payload, second: payload}

	sub := new(mockSubmitter)
	sub.On("Submit", mock.Anything, models.ScanRequest{EventID: "e-1", SessionID: "s-1"}).Return(okResult(), nil).Once()

	s := newTestScanner(src, dec, sub)
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.False(t, res.Retryable)
	assert.Equal(t, "Alice", res.Data.ParticipantName)
	assert.Equal(t, 1, src.Closed(), "terminal result releases the camera")
	sub.AssertNumberOfCalls(t, "Submit", 1)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunFailsFastOnLocallyExpiredPayload(t *testing.T) {
	f := frame()
	payload := `{"sessionId":"s-1","eventId":"e-1","expiresAt":` + itoa(base.UnixMilli()) + `}`
	sub := new(mockSubmitter)

	s := newTestScanner(newFakeSource(f), fakeDecoder{f: payload}, sub)
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.CodeExpiredQR, res.Code)
	assert.True(t, res.Local)
	assert.False(t, res.Retryable)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRunRejectsMalformedPayload(t *testing.T) {
	f := frame()
	sub := new(mockSubmitter)

	s := newTestScanner(newFakeSource(f), fakeDecoder{f: `{"sessionId":`}, sub)
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.CodeInvalidQR, res.Code)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRunBareIDFallback(t *testing.T) {
	f := frame()
	sub := new(mockSubmitter)
	sub.On("Submit", mock.Anything, models.ScanRequest{SessionID: "legacy-42"}).Return(okResult(), nil).Once()

	s := newTestScanner(newFakeSource(f), fakeDecoder{f: "legacy-42"}, sub)
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.CodeOK, res.Code)
	sub.AssertExpectations(t)
}

func TestRunGeofencedPayload(t *testing.T) {
	payload := `{"sessionId":"s-1","eventId":"e-1","expiresAt":` + itoa(base.Add(time.Minute).UnixMilli()) + `,"geoFenceEnabled":true}`

	t.Run("no locator", func(t *testing.T) {
		f := frame()
		sub := new(mockSubmitter)
		s := newTestScanner(newFakeSource(f), fakeDecoder{f: payload}, sub)

		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.CodeLocationRequired, res.Code)
		assert.True(t, res.Local)
		sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("location denied", func(t *testing.T) {
		f := frame()
		sub := new(mockSubmitter)
		s := newTestScanner(newFakeSource(f), fakeDecoder{f: payload}, sub,
			WithLocator(fixedLocator{err: errors.New("permission denied")}))

		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.CodeLocationRequired, res.Code)
	})

	t.Run("location attached", func(t *testing.T) {
		f := frame()
		sub := new(mockSubmitter)
		sub.On("Submit", mock.Anything, mock.MatchedBy(func(r models.ScanRequest) bool {
			return r.Latitude != nil && *r.Latitude == 18.5 && r.Longitude != nil && *r.Longitude == 73.8
		})).Return(okResult(), nil).Once()

		s := newTestScanner(newFakeSource(f), fakeDecoder{f: payload}, sub,
			WithLocator(fixedLocator{lat: 18.5, lon: 73.8}))

		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.CodeOK, res.Code)
		sub.AssertExpectations(t)
	})
}

func TestRunTransientFailureRearms(t *testing.T) {
	first, second := frame(), frame()
	payload := `{"sessionId":"s-1","eventId":"e-1","expiresAt":` + itoa(base.Add(time.Minute).UnixMilli()) + `}`
	src := newFakeSource(first, second)

	sub := new(mockSubmitter)
	sub.On("Submit", mock.Anything, mock.Anything).Return(models.ScanResult{}, errors.New("dial tcp: timeout")).Once()
	sub.On("Submit", mock.Anything, mock.Anything).Return(okResult(), nil).Once()

	s := newTestScanner(src, fakeDecoder{first: payload, second: payload}, sub)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CodeNetworkError, res.Code)
	assert.True(t, res.Retryable)
	assert.Equal(t, 0, src.Closed(), "camera stays open for a retry")

	res, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CodeOK, res.Code)
	assert.Equal(t, 1, src.Closed())
}

func TestRunServerVerdictsAreTerminal(t *testing.T) {
	for _, code := range []models.ScanCode{
		models.CodeAlreadyMarked, models.CodeExpiredQR, models.CodeOutOfRange, models.CodeNoIdentity,
	} {
		t.Run(string(code), func(t *testing.T) {
			f := frame()
			src := newFakeSource(f)
			sub := new(mockSubmitter)
			sub.On("Submit", mock.Anything, mock.Anything).Return(models.NewScanFailure(code, "nope"), nil)

			res, err := newTestScanner(src, fakeDecoder{f: "s-1"}, sub).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, code, res.Code)
			assert.False(t, res.Retryable)
			assert.False(t, res.Local)
			assert.Equal(t, 1, src.Closed())
		})
	}
}

func TestStopCancelsLoopAndReleasesCamera(t *testing.T) {
	src := newFakeSource() // never yields a frame
	s := newTestScanner(src, fakeDecoder{}, new(mockSubmitter))

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, 1, src.Closed())

	s.Stop()
	assert.Equal(t, 1, src.Closed(), "release is idempotent")
}

func TestContextCancelReleasesCamera(t *testing.T) {
	src := newFakeSource()
	s := newTestScanner(src, fakeDecoder{}, new(mockSubmitter))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, src.Closed())
}
