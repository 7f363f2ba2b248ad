package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rajisurvase/village-orbit-api/internal/config"
)

// Sentinel errors for snapshot handling.
var (
	ErrUnsupportedSnapshotType = errors.New("unsupported snapshot type")
	ErrSnapshotTooLarge        = errors.New("snapshot too large")
	ErrMalformedSnapshot       = errors.New("malformed snapshot data")
)

// Snapshot MIME types a browser camera capture can produce.
var allowedSnapshotTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MediaService stores identity snapshots captured at the integrity gate.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveSnapshot decodes a base64 data URL ("data:image/jpeg;base64,...") and
// writes it to local storage with a UUID filename. Returns the relative URL
// path to the saved file.
func (s *MediaService) SaveSnapshot(dataURL string) (string, error) {
	mimeType, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext, ok := allowedSnapshotTypes[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSnapshotType, mimeType)
	}

	// Base64 inflates by 4/3, so check the encoded length first to avoid
	// decoding something enormous.
	if int64(len(payload))/4*3 > s.cfg.MaxSnapshotBytes {
		return "", fmt.Errorf("%w: max %d bytes", ErrSnapshotTooLarge, s.cfg.MaxSnapshotBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if int64(len(raw)) > s.cfg.MaxSnapshotBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrSnapshotTooLarge, len(raw), s.cfg.MaxSnapshotBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	if err := os.WriteFile(destPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return "/uploads/" + filename, nil
}

// splitDataURL extracts the MIME type and base64 payload from a data URL.
func splitDataURL(dataURL string) (string, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", ErrMalformedSnapshot
	}
	meta, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return "", "", ErrMalformedSnapshot
	}
	mimeType, encoding, found := strings.Cut(meta, ";")
	if !found || encoding != "base64" {
		return "", "", ErrMalformedSnapshot
	}
	return mimeType, payload, nil
}
