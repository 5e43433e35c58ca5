package openai

import (
	"errors"
	"fmt"
)

// Placeholders substituted when an error body omits the expected
// fields — the error is still reported rather than swallowed.
const (
	unknownCode    = "unknown code"
	unknownMessage = "unknown error message"
)

// APIError is an error returned by the OpenAI API itself: a status
// >= 400 whose body carried (or should have carried) an error object.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// ErrMalformedResponse reports a success status whose body is missing
// the expected choices structure. Distinct from APIError: the call
// succeeded at the protocol level but the payload is unusable.
var ErrMalformedResponse = errors.New("openai: response missing assistant message")
