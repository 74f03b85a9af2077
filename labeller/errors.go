package labeller

import (
	"fmt"
)

var (
	ErrSchema    = fmt.Errorf("schema error")
	ErrTimeParse = fmt.Errorf("time parse error")

	errFractionalSeconds = fmt.Errorf("unexpected fractional seconds")
)

// SchemaError reports a required column missing from a flow file header.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing column %q", ErrSchema.Error(), e.Column)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// TimeParseError reports a timestamp that does not match the expected layout.
type TimeParseError struct {
	Value  string
	Layout string
	Err    error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("%s: %q does not match %q", ErrTimeParse.Error(), e.Value, e.Layout)
}

func (e *TimeParseError) Unwrap() []error {
	return []error{ErrTimeParse, e.Err}
}
