// Package qrcode renders session payloads as QR images.
package qrcode

import (
	"fmt"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels used by the session endpoint.
const DefaultSize = 256

// EncodePNG renders data as a PNG with medium error correction.
func EncodePNG(data string, size int) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("qrcode: empty payload")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}

// WriteFile saves the QR image for data under dir/<name>.png.
func WriteFile(data, dir, name string) (string, error) {
	if data == "" {
		return "", fmt.Errorf("qrcode: empty payload")
	}
	path := filepath.Join(dir, name+".png")
	if err := qrcode.WriteFile(data, qrcode.Medium, DefaultSize, path); err != nil {
		return "", err
	}
	return path, nil
}
