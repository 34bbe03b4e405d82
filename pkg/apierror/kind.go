// Package apierror classifies failed v0 API calls into a closed set of
// error kinds.
//
// Every non-2xx response observed by the transport is turned into an
// *Error through Classify or FromResponse. The mapping from status code to
// Kind is total: codes without a dedicated kind fall back to
// KindUnexpected. Callers branch with errors.Is against the exported
// sentinels, or with errors.As to inspect the status code and message:
//
//	if errors.Is(err, apierror.ErrRateLimited) { ... }
package apierror

import "net/http"

// Kind is the semantic category of an API failure.
type Kind int

const (
	KindUnexpected Kind = iota // fallback for unmapped or missing status codes
	KindBadRequest
	KindUnauthorized
	KindPaymentRequired
	KindForbidden
	KindNotFound
	KindRequestTimeout
	KindRateLimited
	KindInternalServerError
	KindBadGateway
	KindServiceUnavailable
	KindGatewayTimeout
)

type kindInfo struct {
	name    string
	status  int
	message string
}

// kinds is the canonical table. Index is the Kind value.
var kinds = [...]kindInfo{
	KindUnexpected:          {"unexpected", 0, "An unexpected error occurred. Please try again later."},
	KindBadRequest:          {"bad_request", http.StatusBadRequest, "The request was invalid or malformed. Please check the parameters and try again."},
	KindUnauthorized:        {"unauthorized", http.StatusUnauthorized, "Authentication is required or has expired. Please check your API key."},
	KindPaymentRequired:     {"payment_required", http.StatusPaymentRequired, "Insufficient credits or your subscription has expired. Please check your billing."},
	KindForbidden:           {"forbidden", http.StatusForbidden, "Access denied. You do not have permission for this resource or your quota has been exceeded."},
	KindNotFound:            {"not_found", http.StatusNotFound, "The requested resource was not found."},
	KindRequestTimeout:      {"request_timeout", http.StatusRequestTimeout, "The request timed out. Please try again."},
	KindRateLimited:         {"rate_limited", http.StatusTooManyRequests, "Too many requests. Please slow down and try again later."},
	KindInternalServerError: {"internal_server_error", http.StatusInternalServerError, "The server encountered an unexpected condition. Please try again later."},
	KindBadGateway:          {"bad_gateway", http.StatusBadGateway, "An upstream service failed to respond correctly. Please try again later."},
	KindServiceUnavailable:  {"service_unavailable", http.StatusServiceUnavailable, "The service is temporarily unavailable due to overload or maintenance. Please try again later."},
	KindGatewayTimeout:      {"gateway_timeout", http.StatusGatewayTimeout, "An upstream service timed out. Please try again later."},
}

// byStatus is the reverse index of kinds, built once at init.
var byStatus = func() map[int]Kind {
	m := make(map[int]Kind, len(kinds))
	for k, info := range kinds {
		if info.status != 0 {
			m[info.status] = Kind(k)
		}
	}
	return m
}()

// Kinds returns every kind, fallback first.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

// KindForStatus returns the kind registered for statusCode, or
// KindUnexpected.
func KindForStatus(statusCode int) Kind {
	if k, ok := byStatus[statusCode]; ok {
		return k
	}
	return KindUnexpected
}

func (k Kind) info() kindInfo {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[KindUnexpected]
	}
	return kinds[k]
}

// String returns the snake_case name of the kind.
func (k Kind) String() string { return k.info().name }

// StatusCode returns the canonical HTTP status for the kind, 0 for
// KindUnexpected.
func (k Kind) StatusCode() int { return k.info().status }

// DefaultMessage returns the user-displayable message used when no
// message is supplied.
func (k Kind) DefaultMessage() string { return k.info().message }

// Retryable reports whether a request failing with this kind may succeed
// if repeated unchanged.
func (k Kind) Retryable() bool {
	switch k {
	case KindRequestTimeout, KindRateLimited, KindInternalServerError,
		KindBadGateway, KindServiceUnavailable, KindGatewayTimeout:
		return true
	}
	return false
}

// Terminal reports whether the failure needs user action before a retry
// can succeed. KindPaymentRequired is terminal: credits must be topped up
// first.
func (k Kind) Terminal() bool {
	switch k {
	case KindBadRequest, KindUnauthorized, KindPaymentRequired,
		KindForbidden, KindNotFound:
		return true
	}
	return false
}
