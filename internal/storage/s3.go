package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // Public URL for accessing files (e.g., "http://localhost:9000/media")
}

// S3Storage hosts images that must be reachable by the Graph API: rendered
// marketing composites and brand closing images stored as inline data.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

// UploadInput represents input for uploading an image
type UploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
}

// UploadOutput represents output from uploading an image
type UploadOutput struct {
	Key        string // Object key in S3
	URL        string // Public URL to access the file
	Size       int64
	UploadedAt time.Time
}

// Upload stores an image and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	ext := extensionForContentType(in.ContentType)
	key := fmt.Sprintf("%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &UploadOutput{
		Key:        key,
		URL:        fmt.Sprintf("%s/%s", s.publicURL, key),
		Size:       in.Size,
		UploadedAt: time.Now(),
	}, nil
}

// UploadPNG stores rendered PNG bytes and returns the public URL
func (s *S3Storage) UploadPNG(ctx context.Context, data []byte) (string, error) {
	out, err := s.Upload(ctx, UploadInput{
		Reader:      bytes.NewReader(data),
		ContentType: "image/png",
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// UploadDataURI decodes an inline "data:image/...;base64,..." payload and
// stores it, returning a stable URL the publish API can fetch.
func (s *S3Storage) UploadDataURI(ctx context.Context, dataURI string) (string, error) {
	contentType, data, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	out, err := s.Upload(ctx, UploadInput{
		Reader:      bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Delete removes an object from S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting from s3: %w", err)
	}
	return nil
}

// decodeDataURI splits a data URI into content type and raw bytes
func decodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}

	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}

	contentType := "image/png"
	meta := strings.TrimPrefix(header, "data:")
	if mt, _, _ := strings.Cut(meta, ";"); mt != "" {
		contentType = mt
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}

	return contentType, data, nil
}

// extensionForContentType returns the object key extension for an image type
func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
