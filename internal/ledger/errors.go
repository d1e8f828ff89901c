package ledger

import (
	"fmt"
	"net/http"
)

// Kind classifies a ledger failure so handlers can map it to a status code
// without inspecting messages.
type Kind string

const (
	// KindNotFound means the card or payment does not exist, or a card is not
	// visible to the caller (direct card lookups never reveal foreign cards).
	KindNotFound Kind = "not_found"
	// KindForbidden means the payment exists but its card belongs to someone else.
	KindForbidden Kind = "forbidden"
	// KindInvalidAmount means the amount is non-positive or exceeds the
	// card's current balance.
	KindInvalidAmount Kind = "invalid_amount"
	// KindFatal means an internal consistency violation, e.g. a payment whose
	// card no longer exists. Never caused by user input.
	KindFatal Kind = "fatal"
	// KindStoreUnavailable means the database transaction could not complete.
	// Nothing was committed; the caller may retry.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is the typed result every ledger operation returns on failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to its response status
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidAmount:
		return http.StatusBadRequest
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func invalidAmount(message string) *Error {
	return &Error{Kind: KindInvalidAmount, Message: message}
}

func fatal(message string, err error) *Error {
	return &Error{Kind: KindFatal, Message: message, Err: err}
}

func storeUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
}
