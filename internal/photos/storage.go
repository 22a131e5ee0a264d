// Package photos stores uploaded media and hands back public ids and URLs.
package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/skillquest/skillquest/internal/config"
	"github.com/skillquest/skillquest/pkg/logger"
)

// File is an uploaded photo waiting to be stored.
type File struct {
	Name string
	Body io.Reader
}

// PhotoResult identifies a stored photo.
type PhotoResult struct {
	PublicID string
	URL      string
}

// Storage is the media backend used by the engines.
type Storage interface {
	AddPhoto(ctx context.Context, name string, body io.Reader) (PhotoResult, error)
	DeletePhoto(ctx context.Context, publicID string) error
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileStorage keeps photos under a root directory of an afero filesystem.
type FileStorage struct {
	fs      afero.Fs
	rootDir string
	baseURL string
	log     *logger.Logger
}

// NewFileStorage creates storage on the operating system filesystem.
func NewFileStorage(cfg *config.PhotosConfig, log *logger.Logger) (*FileStorage, error) {
	return NewFileStorageWithFs(afero.NewOsFs(), cfg, log)
}

// NewFileStorageWithFs creates storage on fs (use afero.NewMemMapFs in tests).
func NewFileStorageWithFs(fs afero.Fs, cfg *config.PhotosConfig, log *logger.Logger) (*FileStorage, error) {
	if err := fs.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &FileStorage{
		fs:      fs,
		rootDir: cfg.RootDir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log,
	}, nil
}

// AddPhoto writes body under a fresh public id that keeps the file extension.
func (s *FileStorage) AddPhoto(ctx context.Context, name string, body io.Reader) (PhotoResult, error) {
	if err := ctx.Err(); err != nil {
		return PhotoResult{}, err
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return PhotoResult{}, fmt.Errorf("unsupported photo type %q", ext)
	}

	publicID := uuid.NewString() + ext
	dst := filepath.Join(s.rootDir, publicID)

	f, err := s.fs.Create(dst)
	if err != nil {
		return PhotoResult{}, fmt.Errorf("failed to create photo file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(dst)
		return PhotoResult{}, fmt.Errorf("failed to write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		return PhotoResult{}, fmt.Errorf("failed to close photo file: %w", err)
	}

	s.log.Debug().Str("public_id", publicID).Str("name", name).Msg("Stored photo")

	return PhotoResult{PublicID: publicID, URL: s.baseURL + "/" + publicID}, nil
}

// DeletePhoto removes a stored photo. Deleting a missing photo is not an error.
func (s *FileStorage) DeletePhoto(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if publicID == "" || publicID != filepath.Base(publicID) {
		return fmt.Errorf("invalid photo id %q", publicID)
	}

	err := s.fs.Remove(filepath.Join(s.rootDir, publicID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo %s: %w", publicID, err)
	}

	s.log.Debug().Str("public_id", publicID).Msg("Deleted photo")
	return nil
}

// Open returns a reader for a stored photo.
func (s *FileStorage) Open(publicID string) (afero.File, error) {
	if publicID == "" || publicID != filepath.Base(publicID) {
		return nil, fmt.Errorf("invalid photo id %q", publicID)
	}
	return s.fs.Open(filepath.Join(s.rootDir, publicID))
}
