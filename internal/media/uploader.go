// Package media stores uploaded images and returns the URL they are served from.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidImage = errors.New("invalid image payload")

type Uploader interface {
	Upload(ctx context.Context, data string, folder string) (string, error)
}

// Disk writes images under Dir and serves them below BaseURL.
type Disk struct {
	Dir     string
	BaseURL string
}

var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload accepts either a data URI ("data:image/png;base64,...") or raw base64.
// An http(s) URL is returned untouched.
func (d *Disk) Upload(ctx context.Context, data string, folder string) (string, error) {
	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return data, nil
	}
	raw, ext, err := decode(data)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(d.Dir, filepath.Clean("/"+folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(d.BaseURL, path.Clean("/"+folder), name), nil
}

func decode(data string) ([]byte, string, error) {
	ext := ".bin"
	payload := data
	if strings.HasPrefix(data, "data:") {
		header, body, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", ErrInvalidImage
		}
		mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		e, known := extByMIME[mime]
		if !known {
			return nil, "", ErrInvalidImage
		}
		ext, payload = e, body
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return nil, "", ErrInvalidImage
	}
	return raw, ext, nil
}
