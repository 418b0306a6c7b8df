// Package apperr carries the error taxonomy shared by the store, the payment
// functions and the enrollment manager. Every error has a stable code and the
// HTTP status it maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation         = "validation_error"
	CodeStoreUnavailable   = "store_unavailable"
	CodeConflict           = "conflict"
	CodeNotFound           = "not_found"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeOrderService       = "order_service_error"
	CodeTimeout            = "timeout"
	CodeInvalidSignature   = "invalid_signature"
	CodePaymentNotCaptured = "payment_not_captured"
	CodeOrderMismatch      = "order_mismatch"
	CodeVerificationFailed = "verification_failed"
	CodePaymentFailed      = "payment_failed"
	CodePaymentCancelled   = "payment_cancelled"
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
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func newf(status int, code, format string, args ...interface{}) *Error {
	return New(status, code, fmt.Errorf(format, args...))
}

// Code returns the code of the first *Error in err's tree, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Status returns the HTTP status for err, defaulting to 500.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Validation(format string, args ...interface{}) *Error {
	return newf(http.StatusBadRequest, CodeValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(http.StatusNotFound, CodeNotFound, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newf(http.StatusUnauthorized, CodeUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(http.StatusForbidden, CodeForbidden, format, args...)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

func StoreUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeStoreUnavailable, err)
}

func OrderService(format string, args ...interface{}) *Error {
	return newf(http.StatusBadGateway, CodeOrderService, format, args...)
}

func Timeout(err error) *Error {
	return New(http.StatusGatewayTimeout, CodeTimeout, err)
}

func InvalidSignature() *Error {
	return New(http.StatusBadRequest, CodeInvalidSignature, errors.New("Invalid signature"))
}

func PaymentNotCaptured() *Error {
	return New(http.StatusBadRequest, CodePaymentNotCaptured, errors.New("Payment not captured"))
}

func OrderMismatch() *Error {
	return New(http.StatusBadRequest, CodeOrderMismatch, errors.New("Payment does not belong to this order"))
}

func VerificationFailed(format string, args ...interface{}) *Error {
	return newf(http.StatusBadRequest, CodeVerificationFailed, format, args...)
}

func PaymentFailed(description string) *Error {
	if description == "" {
		description = "Payment failed"
	}
	return New(http.StatusPaymentRequired, CodePaymentFailed, errors.New(description))
}

func PaymentCancelled() *Error {
	return New(http.StatusConflict, CodePaymentCancelled, errors.New("Payment cancelled by user"))
}
