package survey

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidBody = errors.New("invalid body")
	ErrValidation  = errors.New("validation failed")
	ErrStorage     = errors.New("storage failure")
)

// InvalidBodyError means the request carried no usable JSON object.
type InvalidBodyError struct {
	Reason string
}

func (e *InvalidBodyError) Error() string {
	return "invalid body: " + e.Reason
}

func (e *InvalidBodyError) Is(target error) bool {
	return target == ErrInvalidBody
}

// FieldError describes one violated field constraint.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (fe FieldError) Field() string {
	return strings.Join(fe.Loc, ".")
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field(), fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failed append. The record was fully encoded before the sink was called.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
