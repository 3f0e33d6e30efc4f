package session

import (
	"errors"
	"fmt"
)

// ErrBusy rejects an operation that overlaps one already in flight.
var ErrBusy = errors.New("session is busy, please retry")

var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrNoFiles           = errors.New("no files provided")
	ErrFileNotFound      = errors.New("file not found")
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrInvalidOption     = errors.New("option is not one of the choices")
	ErrIncompleteAnswers = errors.New("every question must be answered before submitting")
	ErrQuizSubmitted     = errors.New("quiz already submitted")
	ErrMessageNotFound   = errors.New("message not found")
	ErrNoDownload        = errors.New("message has no downloadable text")
)

// ValidationError marks a request the session refused without side effects.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, detail string) error {
	return &ValidationError{Err: err, Detail: detail}
}
