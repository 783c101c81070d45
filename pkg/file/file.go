// Package file stores uploaded receipts and supporting documents for
// expenses and donations. Two backends exist: local disk for single-node
// deployments and S3-compatible object storage for everything else.
// Uploads are capped in size, restricted to a small MIME allowlist, stored
// under a random name and checksummed with SHA-256.
package file

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Config struct {
	Driver      string `env:"STORAGE_DRIVER" envDefault:"local"`   // Driver selects the backend: "local" or "s3".
	LocalPath   string `env:"STORAGE_PATH" envDefault:"./storage"` // LocalPath is the base directory for the local driver.
	BaseURL     string `env:"STORAGE_BASE_URL" envDefault:"/files/"`
	MaxUploadMB int64  `env:"MAX_UPLOAD_MB" envDefault:"10"` // MaxUploadMB caps a single upload.

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"` // S3Endpoint overrides the AWS endpoint for MinIO-style services.
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
}

// MaxBytes returns the upload cap in bytes.
func (c Config) MaxBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return c.MaxUploadMB << 20
}

// File describes a stored object.
type File struct {
	Path     string `json:"path"`      // backend-relative storage path
	Name     string `json:"file_name"` // original (sanitized) file name
	URL      string `json:"url"`
	Size     int64  `json:"size_bytes"`
	MimeType string `json:"mime_type"`
	Checksum string `json:"checksum"` // hex-encoded SHA-256
}

// Storage is implemented by the local and S3 backends.
type Storage interface {
	// Save streams r into the backend under dir. The returned File carries
	// the generated storage path, size and checksum.
	Save(ctx context.Context, r io.Reader, dir, filename, mimeType string) (*File, error)
	// Delete removes a stored object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}

// allowedMime mirrors what the admin UI accepts: receipts are PDFs or
// photos.
var allowedMime = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// MimeAllowed reports whether uploads of this content type are accepted.
func MimeAllowed(mimeType string) bool {
	_, ok := allowedMime[mimeType]
	return ok
}

// SanitizeFilename strips path components and characters that are unsafe
// in storage keys, keeping the extension intact.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}

// storedName prefixes the sanitized name with a random token so two
// uploads of "recibo.pdf" never collide.
func storedName(filename string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + SanitizeFilename(filename)
}
