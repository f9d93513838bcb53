// Package submit hands assembled submission records to their destination.
// Transports do not retry; a failed Send leaves the form to be aborted.
package submit

import (
	"context"
	"fmt"

	"solarintake/pkg/types"
)

type Transport interface {
	Name() string
	Send(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error)
}

// TransportError wraps any failure to deliver a record.
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %s", e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func failed(transport string, err error) error {
	return &TransportError{Transport: transport, Err: err}
}
