package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the AWS SDK client used here, extracted for
// mocking in tests.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores uploads in an S3-compatible bucket.
type S3Storage struct {
	client   S3Client
	bucket   string
	baseURL  string
	maxBytes int64
}

// S3Option overrides parts of the default construction, mainly for tests.
type S3Option func(*S3Storage)

// WithS3Client injects a pre-built (or mock) client.
func WithS3Client(client S3Client) S3Option {
	return func(s *S3Storage) { s.client = client }
}

// NewS3Storage builds an S3 storage from config. Static credentials and a
// custom endpoint support MinIO-style deployments.
func NewS3Storage(ctx context.Context, cfg Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, ErrInvalidConfig
	}

	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &S3Storage{
		bucket:   cfg.S3Bucket,
		baseURL:  baseURL,
		maxBytes: cfg.MaxBytes(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.S3Region),
		}
		if cfg.S3AccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
				o.UsePathStyle = true
			}
		})
	}

	return s, nil
}

func (s *S3Storage) Save(ctx context.Context, r io.Reader, dir, filename, mimeType string) (*File, error) {
	if !MimeAllowed(mimeType) {
		return nil, ErrTypeNotAllowed
	}

	// PutObject needs a seekable body with a known length, so the upload
	// is buffered. The cap keeps the buffer bounded.
	buf := &bytes.Buffer{}
	size, err := io.Copy(buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	sum := sha256.Sum256(buf.Bytes())
	key := path.Join(dir, storedName(filename))

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(size),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSave, err)
	}

	return &File{
		Path:     key,
		Name:     SanitizeFilename(filename),
		URL:      s.baseURL + key,
		Size:     size,
		MimeType: mimeType,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	return nil
}

// NewStorage builds the backend selected by cfg.Driver.
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
