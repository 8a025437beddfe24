package scanner

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"Backend-Attendance/src/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{"sessionId":"7b0c7f7e-1d7a-4c55-9c1e-1f0f3d1a2b3c","eventId":"E1","expiresAt":1772355900000}`

func TestZXingDecodesRenderedSession(t *testing.T) {
	b, err := qrcode.EncodePNG(samplePayload, 256)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	text, err := NewZXingDecoder().Decode(img)
	require.NoError(t, err)
	assert.Equal(t, samplePayload, text)
}

func TestZXingBlankFrame(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	_, err := NewZXingDecoder().Decode(blank)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestDirSourceReplaysFilesOnce(t *testing.T) {
	dir := t.TempDir()
	_, err := qrcode.WriteFile(samplePayload, dir, "0001")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	img, err := src.Next(context.Background())
	require.NoError(t, err)
	text, err := NewZXingDecoder().Decode(img)
	require.NoError(t, err)
	assert.Equal(t, samplePayload, text)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)

	require.NoError(t, src.Close())
	_, err = src.Next(context.Background())
	assert.Error(t, err)
}
