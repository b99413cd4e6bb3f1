package pipeline

import "errors"

type ErrorKind string

const (
	ValidationError   ErrorKind = "validation"
	NotFoundError     ErrorKind = "not_found"
	CollaboratorError ErrorKind = "collaborator"
)

const (
	MissingBlobNameMessage = "Missing blob_name in POST request"
	NoBlobsMessage         = "No blobs found in container"
)

// Error is the failure half of Process. Its message is what callers show to
// clients, so collaborator errors keep the underlying error text.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the kind of err, treating errors that did not come from
// Process as collaborator failures.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return CollaboratorError
}
