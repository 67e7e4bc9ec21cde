package source

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSchemaMismatch    = errors.New("schema mismatch")
)

// SourceUnavailableError reports that raw data could not be opened or a
// table is missing from it. Callers may retry or fall back to another source.
type SourceUnavailableError struct {
	Path  string
	Table Table // empty when the whole source failed
	Err   error
}

func (e *SourceUnavailableError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("source %s: table %s unavailable: %v", e.Path, e.Table, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrSourceUnavailable.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// SchemaMismatchError reports a missing required column or a value that
// cannot be coerced to its declared kind. It is fatal to a load.
type SchemaMismatchError struct {
	Table  Table
	Column string
	Kind   Kind // declared kind of Column
	Line   int  // 1-based CSV line, 0 for header problems
	Value  string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: column %q: %s", e.Table.FileName(), e.Column, e.Reason)
	}
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %s", e.Table.FileName(), e.Line, e.Reason)
	}
	return fmt.Sprintf("%s:%d: column %q (%s): %s (value %q)", e.Table.FileName(), e.Line, e.Column, e.Kind, e.Reason, e.Value)
}

// Is matches ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
