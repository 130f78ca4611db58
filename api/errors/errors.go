package errors

import (
	"fmt"
	"strings"
)

// FieldError is one failed check on a request field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// MultiErrors collects request validation failures in the order they were found.
type MultiErrors struct {
	errs []FieldError
}

func NewMultiErrors() *MultiErrors {
	return &MultiErrors{}
}

func (e *MultiErrors) Add(field, message string, err error) {
	e.errs = append(e.errs, FieldError{Field: field, Message: message, Err: err})
}

func (e *MultiErrors) HasErrors() bool {
	return len(e.errs) > 0
}

// Fields groups the messages by field for the response body.
func (e *MultiErrors) Fields() map[string][]string {
	fields := make(map[string][]string, len(e.errs))
	for _, fe := range e.errs {
		fields[fe.Field] = append(fields[fe.Field], fe.Message)
	}
	return fields
}

func (e *MultiErrors) Unwrap() []error {
	causes := make([]error, 0, len(e.errs))
	for _, fe := range e.errs {
		if fe.Err != nil {
			causes = append(causes, fe.Err)
		}
	}
	return causes
}

func (e *MultiErrors) Error() string {
	parts := make([]string, 0, len(e.errs))
	for _, fe := range e.errs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, " | ")
}
