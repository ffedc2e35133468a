// Package storage provides a filesystem upload backend used when no object store is configured.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local writes uploads beneath a directory that the HTTP server exposes under PublicPath.
type Local struct {
	dir        string
	publicPath string
	logger     zerolog.Logger
}

// NewLocal ensures dir exists and returns a disk-backed store.
func NewLocal(dir, publicPath string, logger zerolog.Logger) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}

	return &Local{
		dir:        dir,
		publicPath: publicPath,
		logger:     logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string {
	return l.dir
}

// Upload stores the content under a collision-free name and returns its public path.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := uuid.NewString() + "-" + filepath.Base(name)
	target := filepath.Join(l.dir, stored)

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	l.logger.Info().Str("file", stored).Msg("file stored on local disk")

	return path.Join(l.publicPath, stored), nil
}
