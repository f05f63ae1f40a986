package thumbnail

import "fmt"

// Code classifies a pipeline failure by the stage that produced it.
// Callers branch on the code, never on message text.
type Code string

const (
	CodeInvalidImage       Code = "INVALID_IMAGE"
	CodePixelCountExceeded Code = "PIXEL_COUNT_EXCEEDED"
	CodeResizeFailed       Code = "RESIZE_FAILED"
	CodeEncodeFailed       Code = "ENCODE_FAILED"
	CodeMemoryError        Code = "MEMORY_ERROR"
)

// GenerateError is a typed thumbnail failure. Meta carries diagnostic
// context for logging; the underlying cause stays reachable via Unwrap.
type GenerateError struct {
	Code Code
	Meta map[string]any
	Err  error
}

func (e *GenerateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thumbnail: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("thumbnail: %s", e.Code)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

func newError(code Code, err error, meta map[string]any) *GenerateError {
	if meta == nil {
		meta = map[string]any{}
	}
	if err != nil {
		meta["originalError"] = err.Error()
	}
	return &GenerateError{Code: code, Meta: meta, Err: err}
}
