package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindRejected
	KindUnauthenticated
	KindNotFound
	KindRateLimited
	KindUnprocessable
	KindUpstreamQuota
	KindUpstreamTimeout
	KindUpstreamBadGateway
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnprocessable:
		return "unprocessable"
	case KindUpstreamQuota:
		return "upstream_quota"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamBadGateway:
		return "upstream_bad_gateway"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "internal"
	}
}

// Error is the only error type services hand to controllers. Detail is safe
// to show to clients; Err is the cause and is only logged.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and detail, so a sentinel
// still matches after a cause has been attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Detail == e.Detail
}

// With returns a copy of e carrying cause.
func (e *Error) With(cause error) *Error {
	return &Error{Kind: e.Kind, Detail: e.Detail, Err: cause}
}

var (
	ErrDuplicateEmail      = &Error{Kind: KindRejected, Detail: "Email already registered"}
	ErrInvalidCredentials  = &Error{Kind: KindRejected, Detail: "Incorrect username or password"}
	ErrNotAuthenticated    = &Error{Kind: KindUnauthenticated, Detail: "Not authenticated"}
	ErrInvalidToken        = &Error{Kind: KindUnauthenticated, Detail: "Could not validate credentials"}
	ErrUnsupportedType     = &Error{Kind: KindRejected, Detail: "Unsupported file type"}
	ErrFileTooLarge        = &Error{Kind: KindRejected, Detail: "File too large"}
	ErrEmptyFile           = &Error{Kind: KindRejected, Detail: "Empty file"}
	ErrEncryptedPDF        = &Error{Kind: KindRejected, Detail: "Encrypted PDFs not supported"}
	ErrExtractionFailed    = &Error{Kind: KindUnprocessable, Detail: "Could not extract text from document"}
	ErrDocumentNotFound    = &Error{Kind: KindNotFound, Detail: "Document not found"}
	ErrRateLimited         = &Error{Kind: KindRateLimited, Detail: "Rate limit exceeded. Please try again later."}
	ErrUpstreamQuota       = &Error{Kind: KindUpstreamQuota, Detail: "Answer service quota exhausted. Please try again later."}
	ErrUpstreamTimeout     = &Error{Kind: KindUpstreamTimeout, Detail: "Answer service timed out"}
	ErrUpstreamMalformed   = &Error{Kind: KindUpstreamBadGateway, Detail: "Answer service returned no usable answer"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamBadGateway, Detail: "Answer service unavailable"}
	ErrInternal            = &Error{Kind: KindInternal, Detail: "Internal server error"}
)

// Validation builds a KindValidation error with a client facing detail.
func Validation(detail string, cause error) *Error {
	return &Error{Kind: KindValidation, Detail: detail, Err: cause}
}

// AsError returns err as *Error, wrapping anything else as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.With(err)
}

// HTTPStatus is the response code for errors of kind k.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindRejected:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamQuota:
		return http.StatusServiceUnavailable
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
