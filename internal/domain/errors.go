package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAcquisition means the grid file for the requested cycle could not be fetched.
	ErrAcquisition = errors.New("source acquisition failed")

	// ErrConversion means the grid-to-tabular converter did not produce its output.
	ErrConversion = errors.New("grid conversion failed")

	// ErrInputMissing means the tabular input does not exist.
	ErrInputMissing = errors.New("tabular input missing")

	// ErrSchemaMismatch means a row does not fit the seven-column schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// SchemaError describes a single malformed row. It unwraps to ErrSchemaMismatch.
type SchemaError struct {
	Line   int
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema mismatch at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("schema mismatch at line %d, column %s: %s", e.Line, e.Column, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}
