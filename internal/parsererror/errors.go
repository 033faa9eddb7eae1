// Package parsererror defines the typed errors raised while reading bank exports,
// resolving column mappings and importing rent rolls.
package parsererror

import (
	"errors"
	"fmt"
)

// ErrMappingRequired is matched by every MappingError. Callers use it to decide
// that a human must pick the columns.
var ErrMappingRequired = errors.New("manual column mapping required")

// ErrUnconfirmedMapping is returned when a positional or AI suggested mapping is
// applied before an operator confirmed it.
var ErrUnconfirmedMapping = errors.New("column mapping suggestion has not been confirmed")

// MappingError reports a semantic role (date, amount) that could not be bound
// to a column of the uploaded table.
type MappingError struct {
	Role   string
	Column string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("cannot map %s column %q: %s", e.Role, e.Column, e.Reason)
	}
	return fmt.Sprintf("cannot map %s column: %s", e.Role, e.Reason)
}

// Is makes errors.Is(err, ErrMappingRequired) true for any MappingError.
func (e *MappingError) Is(target error) bool {
	return target == ErrMappingRequired
}

// ParseError represents an error during parsing
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure
type ValidationError struct {
	FilePath string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.FilePath, e.Reason)
}

// InvalidFormatError represents an input file that cannot be read as a bank
// export or rent roll.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
	Err                  error
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// DataExtractionError represents an error where specific required data could not be extracted
// from a file, even if the file format itself might be valid.
type DataExtractionError struct {
	FilePath       string
	FieldName      string
	RawDataSnippet string
	Reason         string
	Msg            string
}

func (e *DataExtractionError) Error() string {
	if e.RawDataSnippet != "" {
		return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s. Reason: %s. Raw data snippet: '%s'",
			e.FilePath, e.FieldName, e.Msg, e.Reason, e.RawDataSnippet)
	}
	return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s. Reason: %s",
		e.FilePath, e.FieldName, e.Msg, e.Reason)
}
