package domain

import (
	"errors"
	"fmt"
)

// ErrSchemaNotFound is the sentinel wrapped by every missing-definition
// error. Callers branch on it with errors.Is.
var ErrSchemaNotFound = errors.New("schema definition not found")

// Schema definition kinds, used in SchemaNotFoundError.
const (
	KindTriggerEvent = "trigger_event"
	KindSegment      = "segment"
	KindDataType     = "data_type"
	KindCodeTable    = "code_table"
)

// SchemaNotFoundError reports an absent structural definition. Missing
// segments, data types and tables are non-fatal (the engine degrades to
// minimal output); a missing trigger event is fatal for the composition
// call, because no message can exist without a structural definition.
type SchemaNotFoundError struct {
	Kind string
	Code string
}

// Error implements the error interface.
func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("%s definition not found: %s", e.Kind, e.Code)
}

// Unwrap lets errors.Is match ErrSchemaNotFound.
func (e *SchemaNotFoundError) Unwrap() error {
	return ErrSchemaNotFound
}

// NewSchemaNotFound builds a SchemaNotFoundError for the given kind and code.
func NewSchemaNotFound(kind, code string) *SchemaNotFoundError {
	return &SchemaNotFoundError{Kind: kind, Code: code}
}

// CompositionError reports a failure that prevented any valid message from
// being produced, carrying the trigger-event code that caused it.
type CompositionError struct {
	TriggerEvent string
	Err          error
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("composing %s: %v", e.TriggerEvent, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CompositionError) Unwrap() error {
	return e.Err
}
