package v0

import "github.com/vercel/v0-sdk-sub002/pkg/apierror"

// Error is the error type returned for every failed API call.
type Error = apierror.Error

// Kind is the semantic category of an API failure.
type Kind = apierror.Kind

// Error kinds.
const (
	KindUnexpected          = apierror.KindUnexpected
	KindBadRequest          = apierror.KindBadRequest
	KindUnauthorized        = apierror.KindUnauthorized
	KindPaymentRequired     = apierror.KindPaymentRequired
	KindForbidden           = apierror.KindForbidden
	KindNotFound            = apierror.KindNotFound
	KindRequestTimeout      = apierror.KindRequestTimeout
	KindRateLimited         = apierror.KindRateLimited
	KindInternalServerError = apierror.KindInternalServerError
	KindBadGateway          = apierror.KindBadGateway
	KindServiceUnavailable  = apierror.KindServiceUnavailable
	KindGatewayTimeout      = apierror.KindGatewayTimeout
)

// Sentinels for errors.Is.
var (
	ErrUnexpected          = apierror.ErrUnexpected
	ErrBadRequest          = apierror.ErrBadRequest
	ErrUnauthorized        = apierror.ErrUnauthorized
	ErrPaymentRequired     = apierror.ErrPaymentRequired
	ErrForbidden           = apierror.ErrForbidden
	ErrNotFound            = apierror.ErrNotFound
	ErrRequestTimeout      = apierror.ErrRequestTimeout
	ErrRateLimited         = apierror.ErrRateLimited
	ErrInternalServerError = apierror.ErrInternalServerError
	ErrBadGateway          = apierror.ErrBadGateway
	ErrServiceUnavailable  = apierror.ErrServiceUnavailable
	ErrGatewayTimeout      = apierror.ErrGatewayTimeout
)

// Classify maps an HTTP status code to its error.
func Classify(statusCode int) *Error { return apierror.Classify(statusCode) }

// KindOf returns the kind carried by err, or KindUnexpected.
func KindOf(err error) Kind { return apierror.KindOf(err) }

// IsRetryable reports whether err is a transient API failure.
func IsRetryable(err error) bool { return apierror.IsRetryable(err) }
