package errors

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation failed")
	ErrForbidden               = errors.New("forbidden")
	ErrConflict                = errors.New("conflict")
	ErrSignatureInvalid        = errors.New("signature invalid")
	ErrUpstream                = errors.New("upstream failure")
	ErrPaymentAttemptsExceeded = errors.New("payment attempts exceeded")
)
