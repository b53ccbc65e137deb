// internal/services/evidence_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/utils"
)

const (
	evidenceFolder  = "evidence"
	MaxEvidenceSize = 20 * 1024 * 1024 // 20MB
)

var allowedEvidenceTypes = []string{".pdf", ".json", ".jpg", ".jpeg", ".png", ".txt"}

// EvidenceService stores verification and consent documents off-ledger and
// hands back the opaque reference the ledgers record.
type EvidenceService struct {
	s3Client s3iface.S3API
	config   *config.Config
	clock    Clock
}

type EvidenceUpload struct {
	Reference   string `json:"reference"`
	URL         string `json:"url,omitempty"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mime_type"`
}

func NewEvidenceService(cfg *config.Config) (*EvidenceService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Local development keeps no objects
		return &EvidenceService{config: cfg, clock: SystemClock{}}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewEvidenceServiceWithClient(cfg, s3.New(sess), SystemClock{}), nil
}

func NewEvidenceServiceWithClient(cfg *config.Config, client s3iface.S3API, clock Clock) *EvidenceService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EvidenceService{
		s3Client: client,
		config:   cfg,
		clock:    clock,
	}
}

func (s *EvidenceService) Upload(ctx context.Context, owner, filename, contentType string, data []byte) (*EvidenceUpload, error) {
	if len(data) > MaxEvidenceSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrEvidenceTooLarge, len(data), MaxEvidenceSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedEvidenceType(ext) {
		return nil, fmt.Errorf("%w: %q", ErrEvidenceTypeNotAllowed, ext)
	}

	key := s.objectKey(owner, ext)
	if len(key) > models.MaxEvidenceRefLength {
		return nil, ErrEvidenceRefTooLong
	}

	upload := &EvidenceUpload{
		Reference:   key,
		ContentHash: utils.HashBytes(data),
		Size:        int64(len(data)),
		MimeType:    contentType,
	}

	if s.s3Client == nil {
		upload.URL = fmt.Sprintf("http://localhost:%s/evidence/%s", s.config.Server.Port, key)
		return upload, nil
	}

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.EvidenceBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]*string{
			"sha256": aws.String(upload.ContentHash),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	upload.URL = s.objectURL(key)

	logrus.WithFields(logrus.Fields{
		"reference": key,
		"size":      upload.Size,
	}).Info("Evidence uploaded")

	return upload, nil
}

// PresignURL returns a time-limited download link for an evidence reference.
func (s *EvidenceService) PresignURL(reference string) (string, error) {
	if s.s3Client == nil {
		return "", ErrEvidenceStorageDisabled
	}
	if !strings.HasPrefix(reference, evidenceFolder+"/") {
		return "", fmt.Errorf("%w: unknown evidence reference", ErrEvidenceTypeNotAllowed)
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.EvidenceBucket),
		Key:    aws.String(reference),
	})

	url, err := req.Presign(time.Duration(s.config.AWS.PresignTTL) * time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// objectKey groups objects per owner without putting the raw address in the key.
func (s *EvidenceService) objectKey(owner, ext string) string {
	ownerPrefix := utils.HashBytes([]byte(owner))[:16]
	date := s.clock.Now().UTC().Format("20060102")
	return fmt.Sprintf("%s/%s/%s_%s%s", evidenceFolder, ownerPrefix, date, uuid.New().String()[:8], ext)
}

func (s *EvidenceService) objectURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.EvidenceBucket, s.config.AWS.Region, key)
}

func isAllowedEvidenceType(ext string) bool {
	for _, allowed := range allowedEvidenceTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
