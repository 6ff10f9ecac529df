package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hirelens/hirelens/internal/config"
)

// Sentinel errors for snapshot uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed snapshot MIME types. Captures come off a canvas as JPEG or PNG.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// SnapshotService stores webcam snapshots captured during an attempt.
type SnapshotService struct {
	cfg *config.Config
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(cfg *config.Config) *SnapshotService {
	return &SnapshotService{cfg: cfg}
}

// Save writes an uploaded snapshot under a per-attempt directory with a
// UUID filename. Returns the stored filename relative to the snapshot root.
func (s *SnapshotService) Save(attemptID int, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	attemptDir := filepath.Join(s.cfg.SnapshotDir, strconv.Itoa(attemptID))
	if err := os.MkdirAll(attemptDir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(attemptDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return filepath.Join(strconv.Itoa(attemptID), filename), nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}

// Resolve maps a stored snapshot path back to an absolute file path.
// The stored path is always "<attempt_id>/<uuid>.<ext>"; anything that
// escapes the snapshot root is rejected.
func (s *SnapshotService) Resolve(stored string) (string, error) {
	cleaned := filepath.Clean(stored)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", os.ErrNotExist
	}
	full := filepath.Join(s.cfg.SnapshotDir, cleaned)
	if _, err := os.Stat(full); err != nil {
		return "", err
	}
	return full, nil
}
