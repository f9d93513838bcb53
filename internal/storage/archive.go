package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"solarintake/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes submission records as JSON objects to an S3 bucket.
type Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewArchive(client ObjectPutter, bucket, prefix string) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// ObjectKey returns <prefix>/<yyyy>/<mm>/<id>.json for a record created at t.
func (a *Archive) ObjectKey(id string, t time.Time) string {
	t = t.UTC()
	return path.Join(a.prefix, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), id+".json")
}

// PutSubmission uploads the record and returns its object key.
func (a *Archive) PutSubmission(ctx context.Context, record *types.SubmissionRecord) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	key := a.ObjectKey(record.ID, record.CreatedAt)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"submission-id": record.ID,
			"file-count":    fmt.Sprintf("%d", len(record.Files)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload submission to s3://%s/%s: %w", a.bucket, key, err)
	}

	return key, nil
}

// Location formats an object key as an s3:// URI.
func (a *Archive) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s", a.bucket, key)
}
