package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Local stores files on the local filesystem under a base directory. The
// returned reference is the path relative to that directory.
type Local struct {
	baseDir string
	logger  zerolog.Logger
}

// NewLocal constructs a filesystem-backed store rooted at baseDir.
func NewLocal(baseDir string, logger zerolog.Logger) (*Local, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage directory must be provided")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Local{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Upload writes the content under name and returns name as the reference.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	path, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.Debug().Str("path", path).Msg("file stored")
	return name, nil
}

// Download opens the stored file for reading.
func (l *Local) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Remove deletes the stored file. A missing file is not an error.
func (l *Local) Remove(ctx context.Context, ref string) error {
	path, err := l.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// resolve joins the reference onto the base directory and rejects traversal.
func (l *Local) resolve(ref string) (string, error) {
	cleaned := filepath.Clean(ref)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage reference")
	}
	return filepath.Join(l.baseDir, cleaned), nil
}
