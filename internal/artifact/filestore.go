package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore writes artifacts as flat files. File names are
// timestamp-qualified (UnixNano) so concurrent conversions do not collide;
// if a caller forces the same path anyway, last write wins.
type FileStore struct {
	uploadDir string
	renderDir string
}

// NewFileStore creates a file store rooted at the given directories.
func NewFileStore(uploadDir, renderDir string) *FileStore {
	return &FileStore{
		uploadDir: uploadDir,
		renderDir: renderDir,
	}
}

// EnsureLayout creates the upload and render directories.
func (s *FileStore) EnsureLayout() error {
	for _, dir := range []string{s.uploadDir, s.renderDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}
	slog.Info("artifact store initialized",
		"upload_dir", s.uploadDir,
		"render_dir", s.renderDir)
	return nil
}

// SaveUpload writes the uploaded bytes under the upload directory.
func (s *FileStore) SaveUpload(data []byte, ext string) (string, error) {
	path := filepath.Join(s.uploadDir, timestampName(normalizeExt(ext)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save upload to %s: %w", path, err)
	}
	slog.Debug("saved upload", "path", path, "size_bytes", len(data))
	return path, nil
}

// SaveRender writes the ASCII text under the render directory.
func (s *FileStore) SaveRender(text string) (string, error) {
	path := filepath.Join(s.renderDir, timestampName(".txt"))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to save render to %s: %w", path, err)
	}
	slog.Debug("saved render", "path", path, "size_bytes", len(text))
	return path, nil
}

// Close is a no-op for flat-file storage.
func (s *FileStore) Close() error {
	return nil
}

func timestampName(ext string) string {
	return fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
}

// normalizeExt lower-cases the extension and guarantees a single leading
// dot; unknown or empty extensions fall back to .png.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "png"
	}
	return "." + ext
}
