package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	uploadURLTTL = 15 * time.Minute

	maxFilenameLen = 180

	defaultObjectPrefix = "customer-documents"
)

var (
	ErrEmptyObjectKey      = errors.New("empty object key")
	ErrURLGenerationFailed = errors.New("failed to generate presigned URL")

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// StorageService signs short-lived URLs for document download and upload.
// Objects themselves never pass through this process.
type StorageService interface {
	// PresignDownload returns a GET URL that renders the PDF inline under
	// the given filename.
	PresignDownload(ctx context.Context, objectKey, filename string) (string, error)

	// PresignUpload returns a PUT URL for a pending object key.
	PresignUpload(ctx context.Context, objectKey string) (string, error)
}

// MinIOStorageService implements StorageService against MinIO/S3-compatible
// storage.
type MinIOStorageService struct {
	client      *minio.Client
	bucket      string
	downloadTTL time.Duration
}

// NewMinIOStorageService builds the signer. Download URLs live for
// downloadTTL so a link stays valid as long as the session that minted it.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool, downloadTTL time.Duration) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{client: client, bucket: bucket, downloadTTL: downloadTTL}, nil
}

func (s *MinIOStorageService) PresignDownload(ctx context.Context, objectKey, filename string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", ErrEmptyObjectKey
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", SanitizeFilename(filename)))
	params.Set("response-content-type", "application/pdf")

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.downloadTTL, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presigned.String(), nil
}

func (s *MinIOStorageService) PresignUpload(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", ErrEmptyObjectKey
	}
	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, uploadURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presigned.String(), nil
}

// SanitizeFilename reduces a client-supplied name to a safe PDF filename.
// Anything outside [A-Za-z0-9._-] becomes an underscore and the result is
// capped so header values stay bounded.
func SanitizeFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	safe := unsafeFilenameChars.ReplaceAllString(base, "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		safe = "document"
	}
	if len(safe) > maxFilenameLen {
		safe = safe[:maxFilenameLen]
	}
	if !strings.HasSuffix(strings.ToLower(safe), ".pdf") {
		safe += ".pdf"
	}
	return safe
}

// ObjectKeyBuilder maps market units to object key prefixes. Unknown market
// units fall back to the shared prefix rather than failing the upload.
type ObjectKeyBuilder struct {
	prefixes map[string]string
}

func NewObjectKeyBuilder(prefixes map[string]string) *ObjectKeyBuilder {
	return &ObjectKeyBuilder{prefixes: prefixes}
}

func (b *ObjectKeyBuilder) Build(marketUnit, journalName, filename string) string {
	prefix := defaultObjectPrefix
	if p, ok := b.prefixes[marketUnit]; ok && p != "" {
		prefix = p
	}
	return fmt.Sprintf("%s/%s/%s", prefix, journalName, SanitizeFilename(filename))
}
