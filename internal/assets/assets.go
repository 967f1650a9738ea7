package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded images (profile pictures, message
// attachments) and returns a stable URL for them.
type Store interface {
	Save(dataURL string) (string, error)
}

var ErrBadDataURL = errors.New("malformed data URL")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DiskStore writes decoded images under Dir and serves them back at
// URLPrefix via the gateway's file server.
type DiskStore struct {
	Dir       string
	URLPrefix string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, URLPrefix: "/uploads/"}, nil
}

// Save accepts a "data:image/...;base64,..." payload. Anything that
// is already a plain URL is returned untouched so callers can resend
// a stored reference without re-uploading.
func (d *DiskStore) Save(dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return dataURL, nil
	}

	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", ErrBadDataURL
	}
	mime := strings.TrimPrefix(meta, "data:")
	mime, encoding, _ := strings.Cut(mime, ";")
	if encoding != "base64" {
		return "", ErrBadDataURL
	}
	ext, ok := extensions[mime]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mime)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrBadDataURL
	}

	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(d.Dir, name), raw, 0o644); err != nil {
		return "", err
	}
	return d.URLPrefix + name, nil
}
