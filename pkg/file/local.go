package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes files under a base directory. All paths are resolved
// inside baseDir to block traversal through crafted file names.
type LocalStorage struct {
	baseDir  string
	baseURL  string
	maxBytes int64
}

// NewLocalStorage creates the base directory if needed and returns a
// Storage rooted there.
func NewLocalStorage(cfg Config) (*LocalStorage, error) {
	if cfg.LocalPath == "" {
		return nil, ErrInvalidConfig
	}
	absBase, err := filepath.Abs(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(absBase, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	}

	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &LocalStorage{
		baseDir:  absBase,
		baseURL:  baseURL,
		maxBytes: cfg.MaxBytes(),
	}, nil
}

func (s *LocalStorage) Save(ctx context.Context, r io.Reader, dir, filename, mimeType string) (*File, error) {
	if !MimeAllowed(mimeType) {
		return nil, ErrTypeNotAllowed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	relPath := filepath.Join(dir, storedName(filename))
	absPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	}

	hasher := sha256.New()
	// Read one byte past the cap so oversized uploads are detected instead
	// of silently truncated.
	size, err := io.Copy(io.MultiWriter(dst, hasher), io.LimitReader(r, s.maxBytes+1))
	closeErr := dst.Close()

	switch {
	case err != nil:
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	case closeErr != nil:
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, closeErr)
	case size > s.maxBytes:
		_ = os.Remove(absPath)
		return nil, ErrFileTooLarge
	}

	return &File{
		Path:     filepath.ToSlash(relPath),
		Name:     SanitizeFilename(filename),
		URL:      s.baseURL + filepath.ToSlash(relPath),
		Size:     size,
		MimeType: mimeType,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	absPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	return nil
}

func (s *LocalStorage) resolve(rel string) (string, error) {
	abs := filepath.Join(s.baseDir, rel)
	if !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return "", ErrPathOutsideOfBase
	}
	return abs, nil
}
