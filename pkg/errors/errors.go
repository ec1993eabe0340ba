package errors

import (
	"fmt"
	"strings"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures pipeline definition validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidChoiceError reports a choice parameter whose resolved value is not a
// member of its declared option set. A missing value for a choice parameter
// without a default is reported through the same type with an empty Value.
type InvalidChoiceError struct {
	Parameter string
	Value     string
	Options   []string
}

// NewInvalidChoiceError constructs an InvalidChoiceError.
func NewInvalidChoiceError(parameter, value string, options []string) error {
	return &InvalidChoiceError{Parameter: parameter, Value: value, Options: options}
}

func (e *InvalidChoiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Value == "" {
		return fmt.Sprintf("parameter %s: no value supplied and no default declared (options: %s)",
			e.Parameter, strings.Join(e.Options, ", "))
	}
	return fmt.Sprintf("parameter %s: %q is not one of %s",
		e.Parameter, e.Value, strings.Join(e.Options, ", "))
}

// StepError represents a runtime failure while invoking a step's command.
type StepError struct {
	Stage string
	Step  string
	Err   error
}

// NewStepError constructs a StepError.
func NewStepError(stage, step string, err error) error {
	return &StepError{Stage: stage, Step: step, Err: err}
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stage != "" {
		return fmt.Sprintf("step error in stage %s, step %s: %v", e.Stage, e.Step, e.Err)
	}
	return fmt.Sprintf("step error in %s: %v", e.Step, e.Err)
}

// Unwrap exposes the root error.
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ArchiveError indicates an I/O failure while copying artifacts into the
// archive root. Missing required artifacts are not errors; they are
// aggregated in the archive report instead.
type ArchiveError struct {
	Pattern string
	Err     error
}

// NewArchiveError constructs an ArchiveError for the given glob pattern.
func NewArchiveError(pattern string, err error) error {
	return &ArchiveError{Pattern: pattern, Err: err}
}

func (e *ArchiveError) Error() string {
	if e == nil {
		return ""
	}
	if e.Pattern != "" {
		return fmt.Sprintf("archive error [%s]: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("archive error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ArchiveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
