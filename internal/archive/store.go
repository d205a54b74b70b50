package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/musohq/muso-ai-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives raw enquiry payloads to S3 for extraction-quality review.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ArchiveEnquiry writes an EnquiryRecord as JSON to S3 and appends to the
// monthly manifest. Failures are returned so the caller can log them, but the
// enquiry itself is already persisted before archival runs.
func (s *Store) ArchiveEnquiry(ctx context.Context, record *EnquiryRecord) error {
	if !s.Enabled() {
		return nil
	}

	if record.Version == "" {
		record.Version = "1.0"
	}
	now := record.ArchivedAt
	if now.IsZero() {
		now = time.Now().UTC()
		record.ArchivedAt = now
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	s3Key := fmt.Sprintf("enquiries/v1/%s/%d/%02d/%02d/%s.json",
		record.OrgID, now.Year(), now.Month(), now.Day(), uuid.NewString())

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Info("archived enquiry payload to S3",
		"org_id", record.OrgID,
		"enquiry_id", record.EnquiryID,
		"s3_key", s3Key,
		"duplicate", record.Duplicate,
	)

	entry := ManifestEntry{
		OrgID:      record.OrgID,
		EnquiryID:  record.EnquiryID,
		S3Key:      s3Key,
		Duplicate:  record.Duplicate,
		ArchivedAt: now.Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		// The payload is already archived; a manifest gap is tolerable.
		s.logger.Warn("failed to append manifest", "error", err, "enquiry_id", record.EnquiryID)
	}

	return nil
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// Uses read-modify-write since S3 doesn't support append.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := time.Now().UTC()
	manifestKey := fmt.Sprintf("enquiries/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	if err != nil {
		if !isNotFoundErr(err) {
			return fmt.Errorf("archive: s3 get manifest: %w", err)
		}
	} else {
		existing, _ = io.ReadAll(getResp.Body)
		getResp.Body.Close()
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}

	return nil
}

// isNotFoundErr checks if the error is an S3 NoSuchKey error. String check
// since errors.As with S3 types can be tricky across transport wrappers.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") ||
		strings.Contains(msg, "404") ||
		strings.Contains(msg, "not found")
}
