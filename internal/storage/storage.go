// Package storage puts listing images somewhere a browser can fetch them.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type Store interface {
	// Put writes body under key and returns the public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ListingKey names an uploaded listing image: listings/<unix-ms>_<file name>.
func ListingKey(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("listings/%d_%s", now.UnixMilli(), base)
}

// Local writes under a directory that the /media route serves.
type Local struct {
	Dir     string
	BaseURL string // usually "/media"
}

func NewLocal(dir string) *Local { return &Local{Dir: dir, BaseURL: "/media"} }

func (l *Local) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("storage: bad key %q", key)
	}
	full := filepath.Join(l.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(l.BaseURL, "/") + "/" + filepath.ToSlash(clean), nil
}
