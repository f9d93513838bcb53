package submit

import (
	"context"
	"time"

	"solarintake/pkg/types"
)

type Archiver interface {
	PutSubmission(ctx context.Context, record *types.SubmissionRecord) (string, error)
	Location(key string) string
}

// S3Transport archives the record as one JSON object.
type S3Transport struct {
	archive Archiver
}

func NewS3Transport(archive Archiver) *S3Transport {
	return &S3Transport{archive: archive}
}

func (t *S3Transport) Name() string { return types.TransportS3 }

func (t *S3Transport) Send(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error) {
	key, err := t.archive.PutSubmission(ctx, record)
	if err != nil {
		return nil, failed(t.Name(), err)
	}

	return &types.SubmissionReceipt{
		SubmissionID: record.ID,
		Transport:    t.Name(),
		Location:     t.archive.Location(key),
		AcceptedAt:   time.Now().UTC(),
	}, nil
}

type SubmissionCreator interface {
	Create(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error)
}

// PostgresTransport stores the record through the submission repository.
type PostgresTransport struct {
	repo SubmissionCreator
}

func NewPostgresTransport(repo SubmissionCreator) *PostgresTransport {
	return &PostgresTransport{repo: repo}
}

func (t *PostgresTransport) Name() string { return types.TransportPostgres }

func (t *PostgresTransport) Send(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error) {
	receipt, err := t.repo.Create(ctx, record)
	if err != nil {
		return nil, failed(t.Name(), err)
	}
	return receipt, nil
}
