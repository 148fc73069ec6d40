package spec

import "fmt"

// ErrorCode categorizes loader and schema errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with an optional location. For schema
// errors Path names the offending element, e.g. "resources[pets].operations[get]".
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	Path        string
	JSONPointer string // OpenAPI inputs only, e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string {
	if e.Path != "" {
		return e.Message + " (at " + e.Path + ")"
	}
	return e.Message
}

func (e *SpecError) Unwrap() error { return e.Cause }

func invalid(path, format string, args ...any) *SpecError {
	return &SpecError{Code: ValidationError, Message: fmt.Sprintf(format, args...), Path: path}
}
