package audit

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// ConfigError is raised before scanning when the configuration is unusable.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileParseError reports a source file the parser could not handle.
type FileParseError struct {
	Path string
	Err  error
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *FileParseError) Unwrap() error { return e.Err }

// InsufficientDataError means sample statistics are undefined: they need
// at least two components.
type InsufficientDataError struct {
	Components int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: sample statistics need at least 2 components, found %d", e.Components)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
