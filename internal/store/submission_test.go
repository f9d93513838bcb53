package store

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"solarintake/pkg/types"
)

func testRecord() *types.SubmissionRecord {
	return &types.SubmissionRecord{
		ID:             "sub123",
		Customer:       types.Customer{Name: "Maria", TaxID: "123.456.789-01", Email: "maria@example.com"},
		HasBeneficiary: types.BeneficiaryNo,
		Files: []types.Attachment{
			{Key: "foto_conta_0", Field: "foto_conta", Name: "conta.pdf", Type: "application/pdf", Size: 4},
			{Key: "foto_telhado_0", Field: "foto_telhado", Name: "telhado.jpg", Type: "image/jpeg", Size: 10, Width: 40, Height: 30},
		},
		TotalBytes: 14,
		CreatedAt:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestSubmissionRow(t *testing.T) {
	accepted := time.Date(2024, 5, 1, 8, 0, 2, 0, time.UTC)

	row, err := submissionRow(testRecord(), accepted)
	if err != nil {
		t.Fatalf("submissionRow: %v", err)
	}

	if row.FileCount != 2 || row.TotalBytes != 14 || row.HasBeneficiary != "nao" || !row.AcceptedAt.Equal(accepted) {
		t.Errorf("row = %+v", row)
	}

	var payload types.SubmissionRecord
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ID != "sub123" || len(payload.Files) != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestInsertQueries(t *testing.T) {
	row, _ := submissionRow(testRecord(), time.Now())

	query, args, err := insertSubmissionQuery(row)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(query, "INSERT INTO solarintake.submissions") || !strings.Contains(query, "$10") {
		t.Errorf("query = %s", query)
	}
	if len(args) != 10 {
		t.Errorf("args = %d, want 10", len(args))
	}

	query, args, err = insertFilesQuery(fileRows(testRecord()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(query, "INSERT INTO solarintake.submission_files (submission_id,field_key,") {
		t.Errorf("query = %s", query)
	}
	if len(args) != 16 || args[0] != "sub123" || args[9] != "foto_telhado_0" {
		t.Errorf("args = %v", args)
	}
}

func TestRecentQuery(t *testing.T) {
	query, _, err := recentQuery(0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "ORDER BY accepted_at DESC LIMIT 20") {
		t.Errorf("query = %s", query)
	}
}
