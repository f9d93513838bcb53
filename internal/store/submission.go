package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solarintake/internal/utils"
	"solarintake/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	submissionColumns        = utils.Columns(types.SubmissionRow{})
	submissionSummaryColumns = utils.Columns(types.SubmissionSummary{})
	submissionFileColumns    = utils.Columns(types.SubmissionFileRow{})
)

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create stores the header row, the full record as jsonb and one metadata
// row per attachment in a single transaction.
func (r *SubmissionRepository) Create(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error) {
	row, err := submissionRow(record, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	headerQuery, headerArgs, err := insertSubmissionQuery(row)
	if err != nil {
		return nil, fmt.Errorf("failed to generate submission insert query: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, headerQuery, headerArgs...); err != nil {
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	if len(record.Files) > 0 {
		filesQuery, filesArgs, err := insertFilesQuery(fileRows(record))
		if err != nil {
			return nil, fmt.Errorf("failed to generate file insert query: %w", err)
		}
		if _, err := tx.Exec(ctx, filesQuery, filesArgs...); err != nil {
			return nil, fmt.Errorf("failed to insert submission files: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &types.SubmissionReceipt{
		SubmissionID: row.ID,
		Transport:    types.TransportPostgres,
		Location:     fmt.Sprintf("%s/%s", submissionTableName, row.ID),
		AcceptedAt:   row.AcceptedAt,
	}, nil
}

// Recent lists the latest accepted submissions, newest first.
func (r *SubmissionRepository) Recent(ctx context.Context, limit uint64) ([]types.SubmissionSummary, error) {
	query, args, err := recentQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent submissions query: %w", err)
	}

	var out []types.SubmissionSummary
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	return out, nil
}

// ByID returns the stored record, or nil when no submission has that id.
func (r *SubmissionRepository) ByID(ctx context.Context, id string) (*types.SubmissionRow, error) {
	query, args, err := psql().
		Select(submissionColumns...).
		From(submissionTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate submission query: %w", err)
	}

	var row types.SubmissionRow
	if err := pgxscan.Get(ctx, r.pool, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	return &row, nil
}

func submissionRow(record *types.SubmissionRecord, acceptedAt time.Time) (*types.SubmissionRow, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission payload: %w", err)
	}

	return &types.SubmissionRow{
		ID:             record.ID,
		CustomerName:   record.Customer.Name,
		CustomerTaxID:  record.Customer.TaxID,
		CustomerEmail:  record.Customer.Email,
		HasBeneficiary: string(record.HasBeneficiary),
		FileCount:      len(record.Files),
		TotalBytes:     record.TotalBytes,
		Payload:        payload,
		CreatedAt:      record.CreatedAt,
		AcceptedAt:     acceptedAt,
	}, nil
}

func fileRows(record *types.SubmissionRecord) []types.SubmissionFileRow {
	rows := make([]types.SubmissionFileRow, len(record.Files))
	for i, f := range record.Files {
		rows[i] = types.SubmissionFileRow{
			SubmissionID: record.ID,
			FieldKey:     f.Key,
			Field:        f.Field,
			Name:         f.Name,
			MimeType:     f.Type,
			SizeBytes:    f.Size,
			Width:        f.Width,
			Height:       f.Height,
		}
	}
	return rows
}

func insertSubmissionQuery(row *types.SubmissionRow) (string, []any, error) {
	return psql().
		Insert(submissionTableName).
		SetMap(utils.ColumnMap(row)).
		ToSql()
}

func insertFilesQuery(rows []types.SubmissionFileRow) (string, []any, error) {
	builder := psql().
		Insert(submissionFileTableName).
		Columns(submissionFileColumns...)
	for _, row := range rows {
		builder = builder.Values(utils.ColumnValues(row)...)
	}
	return builder.ToSql()
}

func recentQuery(limit uint64) (string, []any, error) {
	if limit == 0 {
		limit = 20
	}
	return psql().
		Select(submissionSummaryColumns...).
		From(submissionTableName).
		OrderBy("accepted_at DESC").
		Limit(limit).
		ToSql()
}
