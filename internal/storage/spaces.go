package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
	"jobsnap/pkg/utils"
)

// SpacesStore uploads artifacts to a DigitalOcean Spaces bucket through
// the S3 API. Object keys follow the same layout as the local store.
type SpacesStore struct {
	client     *s3.S3
	bucketName string
	cdnURL     string
	logger     types.Logger
}

// NewSpacesStore creates a Spaces-backed store
func NewSpacesStore(cfg *config.Config) (*SpacesStore, error) {
	logger := logging.GetGlobalLogger()

	if cfg.Storage.Spaces.AccessKeyID == "" || cfg.Storage.Spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("spaces credentials are required")
	}
	if cfg.Storage.Spaces.BucketName == "" {
		return nil, fmt.Errorf("spaces bucket name is required")
	}

	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", cfg.Storage.Spaces.Region)

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.Spaces.AccessKeyID,
			cfg.Storage.Spaces.AccessKeySecret,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(cfg.Storage.Spaces.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spaces session: %w", err)
	}

	logger.Info("Spaces storage initialized", map[string]interface{}{
		"bucket":   cfg.Storage.Spaces.BucketName,
		"region":   cfg.Storage.Spaces.Region,
		"endpoint": endpoint,
	})

	return &SpacesStore{
		client:     s3.New(sess),
		bucketName: cfg.Storage.Spaces.BucketName,
		cdnURL:     cfg.Storage.Spaces.CDNEndpoint,
		logger:     logger,
	}, nil
}

// SaveHTML uploads rendered page HTML
func (s *SpacesStore) SaveHTML(ctx context.Context, content string, company, jobID, title string, date time.Time) (string, error) {
	return s.upload(ctx, []byte(content), company, jobID, title, date, KindHTML, "text/html; charset=utf-8")
}

// SaveBinary uploads a binary artifact such as a screenshot or PDF
func (s *SpacesStore) SaveBinary(ctx context.Context, data []byte, company, jobID, title string, date time.Time, kind Kind) (string, error) {
	return s.upload(ctx, data, company, jobID, title, date, kind, contentTypeFor(kind))
}

func (s *SpacesStore) upload(ctx context.Context, data []byte, company, jobID, title string, date time.Time, kind Kind, contentType string) (string, error) {
	safeCompany := utils.SanitizeFileToken(company)
	if safeCompany == "" {
		safeCompany = "unknown"
	}

	objectKey := fmt.Sprintf("%s/%s/%s/%s",
		string(kind), safeCompany, DateBucket(date), BuildFilename(jobID, title, time.Now(), kind))

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s artifact: %w", kind, err)
	}

	s.logger.Debug("Artifact uploaded", map[string]interface{}{
		"kind":       string(kind),
		"object_key": objectKey,
		"bytes":      len(data),
	})

	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.cdnURL, "/"), objectKey), nil
	}
	return objectKey, nil
}

// IsHealthy checks if the bucket is reachable
func (s *SpacesStore) IsHealthy() bool {
	_, err := s.client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	return err == nil
}

func contentTypeFor(kind Kind) string {
	switch kind {
	case KindScreenshot:
		return "image/jpeg"
	case KindPDF:
		return "application/pdf"
	case KindMetadata:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
