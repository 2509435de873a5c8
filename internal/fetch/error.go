package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindUnauthorized
	KindForbidden
	KindHTTP
	KindTooLarge
)

func (kind Kind) String() string {
	switch kind {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindHTTP:
		return "http"
	case KindTooLarge:
		return "too-large"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (err *Error) Error() string {
	switch err.Kind {
	case KindUnauthorized:
		return fmt.Sprintf("credential is invalid or expired (HTTP %d)", err.StatusCode)
	case KindForbidden:
		return fmt.Sprintf("access to the media is forbidden (HTTP %d)", err.StatusCode)
	case KindHTTP:
		return fmt.Sprintf("failed to fetch media: HTTP %d %s", err.StatusCode,
			http.StatusText(err.StatusCode))
	default:
		return fmt.Sprintf("failed to fetch media: %v", err.Err)
	}
}

func (err *Error) Unwrap() error {
	return err.Err
}

// KindOf returns the kind of the *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fetchErr *Error

	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}

	return KindUnknown
}

func statusError(url string, statusCode int) *Error {
	kind := KindHTTP

	switch statusCode {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	}

	return &Error{
		Kind:       kind,
		StatusCode: statusCode,
		URL:        url,
	}
}
