package internal

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed translation attempt.
type ErrorKind string

const (
	NetworkError     ErrorKind = "NetworkError"
	APIError         ErrorKind = "APIError"
	PermissionError  ErrorKind = "PermissionError"
	RateLimitError   ErrorKind = "RateLimitError"
	ModelError       ErrorKind = "ModelError"
	ServerError      ErrorKind = "ServerError"
	StreamParseError ErrorKind = "StreamParseError"
	UnknownError     ErrorKind = "UnknownError"
)

const abortedMessage = "translation aborted"

// TranslationError is the outcome of a failed attempt. Retryable is decided
// when the failure is classified and never changes afterwards.
type TranslationError struct {
	Kind      ErrorKind `json:"kind"`
	Code      int       `json:"code,omitempty"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	// Partial holds whatever text streamed in before the failure.
	Partial string `json:"partial,omitempty"`

	cause error
}

func (e *TranslationError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TranslationError) Unwrap() error {
	return e.cause
}

// Aborted reports whether the attempt ended because its context was cancelled.
func (e *TranslationError) Aborted() bool {
	return errors.Is(e.cause, context.Canceled)
}

// NewTranslationError builds a classified error wrapping cause.
func NewTranslationError(kind ErrorKind, code int, message string, retryable bool, cause error) *TranslationError {
	return &TranslationError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Retryable: retryable,
		cause:     cause,
	}
}

// AbortError is the terminal error reported for a cancelled attempt.
func AbortError(partial string) *TranslationError {
	return &TranslationError{
		Kind:    UnknownError,
		Message: abortedMessage,
		Partial: partial,
		cause:   context.Canceled,
	}
}

// AsTranslationError extracts a *TranslationError from err, classifying
// anything else as UnknownError.
func AsTranslationError(err error) *TranslationError {
	if err == nil {
		return nil
	}
	var te *TranslationError
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, context.Canceled) {
		return AbortError("")
	}
	return NewTranslationError(UnknownError, 0, err.Error(), false, err)
}

// SubtitleEntry is one cue of a subtitle document. ID, timestamps and Text
// are fixed once parsed; only TranslatedText and Error change.
type SubtitleEntry struct {
	ID             int               `json:"id"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time"`
	Text           string            `json:"text"`
	TranslatedText string            `json:"translated_text,omitempty"`
	Error          *TranslationError `json:"error,omitempty"`
}

// Reset clears any translation state.
func (e *SubtitleEntry) Reset() {
	e.TranslatedText = ""
	e.Error = nil
}

// Failed reports whether the last attempt on the entry failed.
func (e *SubtitleEntry) Failed() bool {
	return e.Error != nil
}

// Done reports whether the entry holds a finished translation.
func (e *SubtitleEntry) Done() bool {
	return e.Error == nil && e.TranslatedText != ""
}
