package intake

import (
	"errors"
	"fmt"

	"solarintake/pkg/types"
)

var (
	ErrSubmissionInProgress  = errors.New("submission in progress")
	ErrBatchInProgress       = errors.New("upload batch in progress")
	ErrAttachmentNotFound    = errors.New("attachment not found")
	ErrBeneficiaryNotFound   = errors.New("beneficiary not found")
	ErrBeneficiariesDisabled = errors.New("beneficiary flag is not set to sim")
	ErrUnknownSlot           = errors.New("unknown upload slot")
	ErrUnknownTag            = errors.New("unknown roof tag")
	ErrUnknownAddress        = errors.New("unknown address target")
	ErrInvalidFlag           = errors.New("invalid beneficiary flag")
	ErrDraftNotFound         = errors.New("draft not found")
)

// ValidationError is a missing required field or selection. Title and
// Message are meant for the person filling the form.
type ValidationError struct {
	Field   string
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// SlotFullError rejects an entire batch that would take a slot past its
// maximum file count.
type SlotFullError struct {
	Field    string
	Current  int
	Incoming int
	Max      int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("slot %s holds %d of %d files, cannot add %d", e.Field, e.Current, e.Max, e.Incoming)
}

// Rejection records a file skipped from an otherwise accepted batch.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

type BatchResult struct {
	Added    []types.Attachment `json:"added"`
	Rejected []Rejection        `json:"rejected"`
}
