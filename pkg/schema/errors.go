package schema

import "fmt"

// Error codes for structured error reporting, grouped by pipeline stage.
const (
	// Lexer
	ErrCodeInconsistentIndentation = "LEX_INCONSISTENT_INDENTATION"
	ErrCodeUnterminatedString      = "LEX_UNTERMINATED_STRING"
	ErrCodeInvalidToken            = "LEX_INVALID_TOKEN"

	// Parser
	ErrCodeUnknownBlock          = "PARSE_UNKNOWN_BLOCK"
	ErrCodeUnsupportedExpression = "PARSE_UNSUPPORTED_EXPRESSION"
	ErrCodeUnexpectedToken       = "PARSE_UNEXPECTED_TOKEN"

	// Resolver
	ErrCodeMissingRequiredField       = "RESOLVE_MISSING_REQUIRED_FIELD"
	ErrCodeUnknownColor               = "RESOLVE_UNKNOWN_COLOR"
	ErrCodeUnknownAnchor              = "RESOLVE_UNKNOWN_ANCHOR"
	ErrCodeUnknownPreset              = "RESOLVE_UNKNOWN_PRESET"
	ErrCodeTypeMismatch               = "RESOLVE_TYPE_MISMATCH"
	ErrCodeOverlappingSceneWindows    = "RESOLVE_OVERLAPPING_SCENE_WINDOWS"
	ErrCodeAnimationWindowOutOfBounds = "RESOLVE_ANIMATION_WINDOW_OUT_OF_BOUNDS"
	ErrCodeFrameBudgetExceeded        = "RESOLVE_FRAME_BUDGET_EXCEEDED"

	// Post-compilation
	ErrCodeExport     = "EXPORT_ERROR"
	ErrCodeStore      = "STORE_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeCancelled  = "CANCELLED"
)

// Pos is a line/column source location (1-based). The zero value means the
// location is unknown.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// IsZero reports whether the position is unset.
func (p Pos) IsZero() bool { return p.Line == 0 && p.Col == 0 }

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// CreatorError is the structured error type for all compilation and export
// operations. Every pipeline stage fails fast with the first CreatorError it
// produces; no partial Document is ever returned alongside one.
type CreatorError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Pos     Pos            `json:"pos,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *CreatorError) Error() string {
	if !e.Pos.IsZero() {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Pos, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CreatorError) Unwrap() error {
	return e.Cause
}

// NewError creates a new CreatorError.
func NewError(code, message string) *CreatorError {
	return &CreatorError{Code: code, Message: message}
}

// NewErrorf creates a new CreatorError with a formatted message.
func NewErrorf(code, format string, args ...any) *CreatorError {
	return &CreatorError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPos attaches a source position to the error.
func (e *CreatorError) WithPos(pos Pos) *CreatorError {
	e.Pos = pos
	return e
}

// WithCause attaches an underlying cause.
func (e *CreatorError) WithCause(err error) *CreatorError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *CreatorError) WithDetails(details map[string]any) *CreatorError {
	e.Details = details
	return e
}
