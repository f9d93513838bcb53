package types

import (
	"encoding/json"
	"time"
)

// SubmissionRow is the header row of a stored submission. Payload holds the
// full record as jsonb.
type SubmissionRow struct {
	ID             string          `db:"id"`
	CustomerName   string          `db:"customer_name"`
	CustomerTaxID  string          `db:"customer_tax_id"`
	CustomerEmail  string          `db:"customer_email"`
	HasBeneficiary string          `db:"has_beneficiary"`
	FileCount      int             `db:"file_count"`
	TotalBytes     int64           `db:"total_bytes"`
	Payload        json.RawMessage `db:"payload"`
	CreatedAt      time.Time       `db:"created_at"`
	AcceptedAt     time.Time       `db:"accepted_at"`
}

// SubmissionSummary is a header row without the payload, for listings.
type SubmissionSummary struct {
	ID           string    `db:"id"`
	CustomerName string    `db:"customer_name"`
	FileCount    int       `db:"file_count"`
	TotalBytes   int64     `db:"total_bytes"`
	AcceptedAt   time.Time `db:"accepted_at"`
}

type SubmissionFileRow struct {
	SubmissionID string `db:"submission_id"`
	FieldKey     string `db:"field_key"`
	Field        string `db:"field"`
	Name         string `db:"name"`
	MimeType     string `db:"mime_type"`
	SizeBytes    int64  `db:"size_bytes"`
	Width        int    `db:"width"`
	Height       int    `db:"height"`
}
