package verify

import "errors"

var (
	// ErrInvalidInput is returned before any network call when the input cannot form
	// a request (empty text, undecodable file, wrong media type, too large).
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransportFailure means the analysis call itself did not complete.
	ErrTransportFailure = errors.New("analysis call failed")
	// ErrMalformedResponse means the call completed but its body was empty,
	// unparseable, or did not satisfy the result schema.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// Retryable reports whether err is an analysis failure the user may simply retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransportFailure) || errors.Is(err, ErrMalformedResponse)
}
