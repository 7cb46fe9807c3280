package httperr

import "errors"

// BadRequestError marks validation and configuration failures that are not
// retryable: the request (or the deployment's schema) has to change first.
type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	var target *BadRequestError
	return errors.As(err, &target)
}

// UnavailableError marks storage-layer failures (connectivity, constraint
// machinery) that the caller may retry.
type UnavailableError struct {
	msg string
	err error
}

func (e *UnavailableError) Error() string { return e.msg }
func (e *UnavailableError) Unwrap() error { return e.err }

func NewUnavailable(msg string, err error) error {
	return &UnavailableError{msg: msg, err: err}
}

func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}
