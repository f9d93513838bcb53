package utils

import (
	"reflect"
	"testing"
)

type row struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Skipped string `db:"-"`
	NoTag   string
	hidden  string `db:"hidden"`
	Count   int    `db:"count"`
}

func TestColumns(t *testing.T) {
	r := row{ID: "a", Name: "b", Skipped: "c", NoTag: "d", hidden: "e", Count: 3}

	if got, want := Columns(r), []string{"id", "name", "count"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Columns = %v, want %v", got, want)
	}
	if got, want := ColumnValues(&r), []any{"a", "b", 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnValues = %v, want %v", got, want)
	}
	if got, want := ColumnMap(r), map[string]any{"id": "a", "name": "b", "count": 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnMap = %v, want %v", got, want)
	}
}

func TestColumnsPanicsOnNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Columns(42)
}

func TestNanoID(t *testing.T) {
	if got := len(NanoID()); got != DraftIDSize {
		t.Errorf("NanoID length = %d", got)
	}
	if got := len(SubmissionID()); got != SubmissionIDSize {
		t.Errorf("SubmissionID length = %d", got)
	}
	if NanoID() == NanoID() {
		t.Error("ids repeat")
	}
}
