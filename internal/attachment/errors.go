package attachment

import "fmt"

// ReadError is returned when the bytes of a source cannot be read.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// DecodeError is returned when a source declared as an image cannot be
// parsed as one.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FileTooLargeError rejects a single source above the per-file cap. It is
// raised before normalization.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s is %s, limit is %s", e.Name, FormatSize(e.Size), FormatSize(e.Limit))
}

// BudgetExceededError rejects a submission whose attachments add up to more
// than the aggregate ceiling.
type BudgetExceededError struct {
	Total int64
	Limit int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("attachments total %s, limit is %s", FormatSize(e.Total), FormatSize(e.Limit))
}
