package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a provider failure. Only [KindTransport] failures are
// retried; every other kind is terminal for the request.
type Kind int

const (
	// KindTransport covers connection failures, DNS errors, and timeouts.
	KindTransport Kind = iota + 1

	// KindAuth is an authentication failure (HTTP 401 or vendor equivalent).
	KindAuth

	// KindRegion is a region/territory restriction (HTTP 403).
	KindRegion

	// KindNotFound means the model or endpoint does not exist (HTTP 404).
	KindNotFound

	// KindQuota is a rate limit or exhausted balance (HTTP 429).
	KindQuota

	// KindOverloaded is a vendor-side overload (HTTP 503).
	KindOverloaded

	// KindParse means the response body lacked the expected fields.
	KindParse

	// KindResponse is any other vendor-reported error.
	KindResponse
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindRegion:
		return "region"
	case KindNotFound:
		return "not_found"
	case KindQuota:
		return "quota"
	case KindOverloaded:
		return "overloaded"
	case KindParse:
		return "parse"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Message returns the human-readable explanation surfaced to the caller for
// this failure kind.
func (k Kind) Message() string {
	switch k {
	case KindTransport:
		return "HTTP request error. Please check the network setting."
	case KindAuth:
		return "Authentication error. Please check if the service provider's key is correct."
	case KindRegion:
		return "Country, region, or territory not supported."
	case KindNotFound:
		return "Service does not exist. Please check if the model does not exist or has expired."
	case KindQuota:
		return "Rate limit reached for requests or you exceeded your current quota. " +
			"Please reduce the frequency of sending requests or check your account balance."
	case KindOverloaded:
		return "The server is currently overloaded, please try again later."
	case KindParse:
		return "Parsing error. Unexpected server response."
	default:
		return "An error occurred while contacting the service provider."
	}
}

// Error is the classified provider failure type. Every error crossing the
// Provider boundary is one of these.
type Error struct {
	// Kind is the taxonomy bucket.
	Kind Kind

	// Provider is the vendor name.
	Provider string

	// Detail is optional vendor-supplied context (error message, status).
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s %s", e.Provider, e.Kind, e.Kind.Message())
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, mapping raw context and network
// errors onto [KindTransport]. Unclassified errors report [KindResponse].
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindTransport
	}
	return KindResponse
}

// Retryable reports whether err is worth another attempt. Only transport
// failures are; auth, quota, and availability failures would fail identically.
func Retryable(err error) bool {
	return KindOf(err) == KindTransport
}

// ClassifyStatus maps an HTTP status code onto the shared taxonomy, following
// the vendor-common convention. detail carries the response body excerpt.
func ClassifyStatus(provider string, status int, detail string) *Error {
	var kind Kind
	switch status {
	case 401:
		kind = KindAuth
	case 403:
		kind = KindRegion
	case 404:
		kind = KindNotFound
	case 429:
		kind = KindQuota
	case 503:
		kind = KindOverloaded
	default:
		kind = KindResponse
	}
	return &Error{Kind: kind, Provider: provider, Detail: detail}
}
