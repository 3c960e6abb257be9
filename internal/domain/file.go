package domain

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMediaTooLarge    = errors.New("file is too large")
)

// MediaStorage stores uploaded files under object keys
type MediaStorage interface {
	// Upload saves a file under key and returns the key
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Copy duplicates an object under a new key
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	// URL builds the public address of a stored object
	URL(key string) string
}

// MediaKind groups the accepted content types and size of an upload slot
type MediaKind struct {
	Name         string
	Folder       string
	ContentTypes map[string]string // content type -> extension
	MaxBytes     int64
}

// ImageMedia accepts common photo formats
func ImageMedia(folder string, maxMB int64) MediaKind {
	return MediaKind{
		Name:   "image",
		Folder: folder,
		ContentTypes: map[string]string{
			"image/jpeg": ".jpg",
			"image/png":  ".png",
			"image/webp": ".webp",
			"image/heic": ".heic",
		},
		MaxBytes: maxMB * 1024 * 1024,
	}
}

// VideoMedia accepts exercise demonstration videos
func VideoMedia(folder string, maxMB int64) MediaKind {
	return MediaKind{
		Name:   "video",
		Folder: folder,
		ContentTypes: map[string]string{
			"video/mp4":       ".mp4",
			"video/quicktime": ".mov",
			"video/webm":      ".webm",
		},
		MaxBytes: maxMB * 1024 * 1024,
	}
}

// Check validates an upload and returns the extension for its content type
func (m MediaKind) Check(contentType string, size int64) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := m.ContentTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}
	if size > m.MaxBytes {
		return "", fmt.Errorf("%w: %s must be at most %d MB", ErrMediaTooLarge, m.Name, m.MaxBytes/(1024*1024))
	}
	return ext, nil
}

// Key builds an object key inside the media folder
func (m MediaKind) Key(name, ext string) string {
	return path.Join(m.Folder, name+ext)
}
