package stamp

import (
	"errors"
	"fmt"
)

var (
	ErrConfigValidation     = errors.New("invalid stamp config")
	ErrInputNotFound        = errors.New("input not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedStampType = errors.New("unsupported stamp type")
	ErrConversion           = errors.New("document conversion failed")
	ErrDocumentOpen         = errors.New("failed to open document")
	ErrDocumentSave         = errors.New("failed to save document")
	ErrImageProcessing      = errors.New("image processing failed")
	ErrProcessing           = errors.New("stamp processing failed")
)

// ConfigError reports the first Config field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfigValidation, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigValidation
}

// ProcessingError wraps a failure raised while a document was being
// opened, stamped or saved. Stage is the last state the job reached.
type ProcessingError struct {
	Stage State
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s after %s: %v", ErrProcessing, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessing
}
