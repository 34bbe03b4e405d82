package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error is a classified API failure. Values are built once by the
// constructors in this package and are not mutated afterwards.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the status observed on the wire. It is 0 when no
	// response was received.
	StatusCode int

	// Code is the machine-readable error type from the response body, if any.
	Code       string
	RequestID  string
	RetryAfter time.Duration
	Body       []byte
	Err        error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrUnexpected          = New(KindUnexpected, "")
	ErrBadRequest          = New(KindBadRequest, "")
	ErrUnauthorized        = New(KindUnauthorized, "")
	ErrPaymentRequired     = New(KindPaymentRequired, "")
	ErrForbidden           = New(KindForbidden, "")
	ErrNotFound            = New(KindNotFound, "")
	ErrRequestTimeout      = New(KindRequestTimeout, "")
	ErrRateLimited         = New(KindRateLimited, "")
	ErrInternalServerError = New(KindInternalServerError, "")
	ErrBadGateway          = New(KindBadGateway, "")
	ErrServiceUnavailable  = New(KindServiceUnavailable, "")
	ErrGatewayTimeout      = New(KindGatewayTimeout, "")
)

// New builds an error of the given kind. An empty message selects the
// kind's default message. The status code is the kind's canonical code.
func New(kind Kind, message string) *Error {
	if message == "" {
		message = kind.DefaultMessage()
	}
	return &Error{
		Kind:       kind,
		Message:    message,
		StatusCode: kind.StatusCode(),
	}
}

// Classify maps a status code to its error. It never returns nil: codes
// outside the table, including 0 and negative values, produce
// KindUnexpected. The observed code is kept on the error for inspection.
func Classify(statusCode int) *Error {
	return ClassifyMessage(statusCode, "")
}

// ClassifyMessage is Classify with a caller-supplied message. The message
// is kept verbatim; an empty message selects the kind default.
func ClassifyMessage(statusCode int, message string) *Error {
	e := New(KindForStatus(statusCode), message)
	if statusCode > 0 {
		e.StatusCode = statusCode
	} else {
		e.StatusCode = 0
	}
	return e
}

// envelope covers the error bodies returned by the v0 API:
//
//	{"error": {"message": "...", "type": "..."}}
//	{"error": "...", "message": "..."}
type envelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type envelopeDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// FromResponse classifies a completed response. The message and code are
// taken from the body when it is a recognised error envelope; otherwise
// the kind default is used.
func FromResponse(statusCode int, header http.Header, body []byte) *Error {
	message, code := parseBody(body)
	e := ClassifyMessage(statusCode, message)
	e.Code = code
	if len(body) > 0 {
		e.Body = body
	}
	if header != nil {
		e.RequestID = firstHeader(header, "X-Request-Id", "X-Vercel-Id")
		e.RetryAfter = parseRetryAfter(header.Get("Retry-After"), time.Now())
	}
	return e
}

// FromTransportError classifies a failure where no response was received.
// Timeouts become KindRequestTimeout with status 408; anything else is
// KindUnexpected with status 0. The cause is kept for errors.Is/As.
func FromTransportError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var e *Error
	if isTimeout(err) {
		e = Classify(http.StatusRequestTimeout)
	} else {
		e = New(KindUnexpected, "")
	}
	e.Err = err
	return e
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("v0: ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status=%d, kind=%s)", e.StatusCode, e.Kind)
	} else {
		fmt.Fprintf(&b, " (kind=%s)", e.Kind)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the failed call may be repeated unchanged.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf returns the kind carried by err, or KindUnexpected when err is
// not (and does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsRetryable reports whether err is an API error of a retryable kind.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

func parseBody(body []byte) (message, code string) {
	if len(body) == 0 {
		return "", ""
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ""
	}
	code = env.Code
	if len(env.Error) > 0 {
		var detail envelopeDetail
		if err := json.Unmarshal(env.Error, &detail); err == nil {
			if detail.Message != "" {
				message = detail.Message
			}
			if detail.Type != "" {
				code = detail.Type
			} else if detail.Code != "" {
				code = detail.Code
			}
		} else {
			var s string
			if err := json.Unmarshal(env.Error, &s); err == nil && message == "" {
				message = s
			}
		}
	}
	if env.Message != "" {
		message = env.Message
	}
	return strings.TrimSpace(message), code
}

func firstHeader(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
