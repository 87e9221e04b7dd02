package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeTooLarge   = "too_large"
	CodeInternal   = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound covers both "does not exist" and "belongs to someone else".
func NotFound(resource string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found", resource))
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, fmt.Errorf(format, args...))
}

func TooLarge(err error) *Error {
	return New(http.StatusRequestEntityTooLarge, CodeTooLarge, err)
}

// Internal wraps a failure whose details must stay in the logs.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// FromDB turns a missing row into NotFound(resource) and passes any other
// error through untouched.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource)
	}
	return err
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Status == http.StatusNotFound
}

// FieldErrors maps a form field name to its first failing message.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f FieldErrors) Empty() bool { return len(f) == 0 }
