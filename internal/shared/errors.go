package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// Handlers return it when the message inside Err is safe to show the caller;
// routers map anything else to a generic 500.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrInvalidKeyLen = &RequestError{Err: errors.New("invalid API key length"), StatusCode: 401}

	ErrInvalidRequest = &RequestError{Err: errors.New("invalid request body"), StatusCode: 400}
	ErrBodyTooLarge   = &RequestError{Err: errors.New("request body too large"), StatusCode: 413}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}
)

// BadInput wraps err as a 400 whose message is shown to the caller.
func BadInput(err error) *RequestError {
	return &RequestError{StatusCode: 400, Err: err}
}
