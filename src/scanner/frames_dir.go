package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var errSourceClosed = errors.New("frame source closed")

// DirSource replays image files dropped into a directory, oldest name first.
// Each file is read once.
type DirSource struct {
	dir string

	mu     sync.Mutex
	seen   map[string]struct{}
	closed bool
}

func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &DirSource{dir: dir, seen: make(map[string]struct{})}, nil
}

func (d *DirSource) Next(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		if _, ok := d.seen[e.Name()]; ok {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, ErrNoFrame
	}
	sort.Strings(names)

	name := names[0]
	d.seen[name] = struct{}{}
	f, err := os.Open(filepath.Join(d.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// unreadable files are skipped like empty frames
		return nil, ErrNoFrame
	}
	return img, nil
}

func (d *DirSource) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// StaticLocator reports a fixed position, for devices without GPS.
type StaticLocator struct {
	Latitude  float64
	Longitude float64
}

func (l StaticLocator) Locate(context.Context) (float64, float64, error) {
	return l.Latitude, l.Longitude, nil
}
