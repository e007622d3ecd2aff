// Package storage uploads user images to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/laporinpolisi/laporin-backend/internal/config"
	"github.com/rs/xid"
)

const keyPrefix = "uploads/"

var ErrUnsupportedType = errors.New("unsupported image type")

// Extensions keyed by the content types accepted for upload.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func Supported(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

type S3ImageStore struct {
	bucket   string
	baseURL  string
	uploader s3manageriface.UploaderAPI
}

// NewS3ImageStore returns nil when no bucket is configured.
func NewS3ImageStore(cfg *config.Config) (*S3ImageStore, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewS3ImageStoreWithUploader(cfg.S3Bucket, cfg.PublicBaseURL, s3manager.NewUploader(sess)), nil
}

func NewS3ImageStoreWithUploader(bucket, baseURL string, uploader s3manageriface.UploaderAPI) *S3ImageStore {
	return &S3ImageStore{
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		uploader: uploader,
	}
}

// Put stores body under a fresh key and returns its public URL.
func (s *S3ImageStore) Put(ctx context.Context, contentType string, body io.Reader) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	key := keyPrefix + xid.New().String() + ext

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		ACL:         aws.String("public-read"),
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	return out.Location, nil
}
