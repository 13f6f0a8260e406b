package convert

import "errors"

// Kind classifies a conversion failure for status mapping: input-shape
// problems surface as 422, unexpected ones as 500.
type Kind int

const (
	// KindUnsupported means no registered converter accepts the input.
	KindUnsupported Kind = iota
	// KindBadInput means the accepting converter found the payload corrupt
	// or not actually in its format.
	KindBadInput
	// KindInternal covers everything unanticipated.
	KindInternal
)

// Error is the typed failure produced by conversion. Detail is sanitized and
// safe to echo to clients; the wrapped error is for logs only.
type Error struct {
	Kind   Kind
	Format string
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "conversion failed"
}

func (e *Error) Unwrap() error { return e.err }

func badInput(format, detail string, err error) *Error {
	return &Error{Kind: KindBadInput, Format: format, Detail: detail, err: err}
}

func asError(err error, target **Error) bool { return errors.As(err, target) }
