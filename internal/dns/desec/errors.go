package desec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure talking to the deSEC API.
type Kind int

const (
	KindUnknownProviderError Kind = iota
	KindAuthenticationFailed
	KindZoneNotFound
	KindNotFound
	KindRateLimited
	KindServerError
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationFailed:
		return "AuthenticationFailed"
	case KindZoneNotFound:
		return "ZoneNotFound"
	case KindNotFound:
		return "NotFound"
	case KindRateLimited:
		return "RateLimited"
	case KindServerError:
		return "ServerError"
	case KindMalformedResponse:
		return "MalformedResponse"
	default:
		return "UnknownProviderError"
	}
}

// Error is the single error type returned by this package. Message is meant
// for the person running the certificate request.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 if no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	return "desec: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Status != 0 {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnknownProviderError = &Error{Kind: KindUnknownProviderError}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed}
	ErrZoneNotFound         = &Error{Kind: KindZoneNotFound}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrRateLimited          = &Error{Kind: KindRateLimited}
	ErrServerError          = &Error{Kind: KindServerError}
	ErrMalformedResponse    = &Error{Kind: KindMalformedResponse}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindUnknownProviderError, false
}

// checkResponse maps a non-2xx response to an *Error. what names the object
// the request was about and ends up in not-found messages.
func checkResponse(resp *response, what string) error {
	switch {
	case resp.status >= 200 && resp.status <= 299:
		return nil
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		return &Error{
			Kind:    KindAuthenticationFailed,
			Status:  resp.status,
			Message: fmt.Sprintf("could not authenticate against deSEC API (status %d): %s", resp.status, resp.body),
		}
	case resp.status == http.StatusNotFound:
		return &Error{
			Kind:    KindNotFound,
			Status:  resp.status,
			Message: fmt.Sprintf("could not find %s: %s", what, resp.body),
		}
	case resp.status == http.StatusTooManyRequests:
		return &Error{
			Kind:   KindRateLimited,
			Status: resp.status,
			Message: fmt.Sprintf("deSEC throttled your request after %d attempts; too many operations are "+
				"running against your account at once. Please run for various domains at different times. %s",
				resp.attempts, resp.body),
		}
	case resp.status >= 500:
		return &Error{
			Kind:    KindServerError,
			Status:  resp.status,
			Message: fmt.Sprintf("deSEC API server error (status %d): %s", resp.status, resp.body),
		}
	default:
		return &Error{
			Kind:   KindUnknownProviderError,
			Status: resp.status,
			Message: fmt.Sprintf("unknown error when talking to deSEC (status %d): request was %s %s with payload %s; response was %q",
				resp.status, resp.method, resp.url, resp.reqBody, resp.body),
		}
	}
}

// decodeJSON unmarshals the response body into v.
func decodeJSON(resp *response, v interface{}) error {
	if err := json.Unmarshal(resp.body, v); err != nil {
		return &Error{
			Kind:    KindMalformedResponse,
			Status:  resp.status,
			Message: fmt.Sprintf("deSEC API sent non-JSON response (status %d): %s", resp.status, resp.body),
			Err:     err,
		}
	}
	return nil
}

// transportError wraps a failure that produced no HTTP response at all.
func transportError(method, url string, payload []byte, err error) error {
	return &Error{
		Kind:    KindUnknownProviderError,
		Message: fmt.Sprintf("request %s %s with payload %s failed: %v", method, url, payload, err),
		Err:     err,
	}
}
