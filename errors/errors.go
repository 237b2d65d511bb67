package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Code classifies an error. Codes mirror http status codes so the transport layer can return them as-is
type Code int

const (
	Internal   Code = http.StatusInternalServerError
	NotFound   Code = http.StatusNotFound
	Forbidden  Code = http.StatusForbidden
	Validation Code = http.StatusBadRequest
)

// Error is a custom error
type Error struct {
	Code     Code     `json:"code"`
	Messages []string `json:"messages"`
	Err      error    `json:"err,omitempty"`
}

// Error returns the Error as a json string
func (e *Error) Error() string {
	type alias struct {
		Code     Code     `json:"code"`
		Messages []string `json:"messages"`
		Err      string   `json:"err,omitempty"`
	}
	a := alias{Code: e.Code, Messages: e.Messages}
	if a.Code == 0 {
		a.Code = http.StatusOK
	}
	if e.Err != nil {
		a.Err = e.Err.Error()
	}
	bits, _ := json.Marshal(a)
	return string(bits)
}

// Unwrap returns the underlying error (if any)
func (e *Error) Unwrap() error {
	return e.Err
}

// RemoveError removes the error from the Error and leaves it's messages and code
func (e *Error) RemoveError() *Error {
	return &Error{
		Code:     e.Code,
		Messages: e.Messages,
		Err:      nil,
	}
}

// Extract extracts the custom Error from the given error
func Extract(err error) *Error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:     0,
			Messages: nil,
			Err:      err,
		}
	}
	return e
}

// New creates a new error with the given code and formatted message
func New(code Code, msg string, args ...any) error {
	return &Error{
		Code:     code,
		Messages: []string{fmt.Sprintf(msg, args...)},
	}
}

// Wrap wraps the given error and returns a new one. A nil error stays nil.
func Wrap(err error, code Code, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if ok {
		if msg != "" {
			e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
		}
		if code > 0 {
			e.Code = code
		}
		return e
	}
	e = &Error{
		Code: code,
		Err:  err,
	}
	if msg != "" {
		e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
	}
	return e
}

// HasCode returns true if the error carries the given code
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return Extract(err).Code == code
}
