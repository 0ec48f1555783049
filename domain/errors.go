// domain/errors.go
package domain

import "fmt"

// ValidationError reports caller input that fails a content rule.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// WriteError reports that the store could not persist an update. The cause
// is kept for logs; callers only ever show "write failed".
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return "write failed: " + e.Op
	}
	return fmt.Sprintf("write failed: %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ProtocolError reports an unsupported request shape or method.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return e.Msg
}

var (
	ErrTextRequired = &ValidationError{Field: "text", Msg: "text required"}
	ErrInvalidJSON  = &ValidationError{Field: "body", Msg: "invalid JSON"}

	ErrBadRequest       = &ProtocolError{Msg: "bad request"}
	ErrMethodNotAllowed = &ProtocolError{Msg: "method not allowed"}
)
