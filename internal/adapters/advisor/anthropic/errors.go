package anthropic

import "errors"

var (
	ErrUnexpectedStatus    = errors.New("anthropic: unexpected response status")
	ErrEmptyResponse       = errors.New("anthropic: empty response content")
	ErrNoStructuredPayload = errors.New("anthropic: no structured payload in response")
	ErrMalformedPayload    = errors.New("anthropic: malformed payload")
	ErrMissingAction       = errors.New("anthropic: payload missing action")
)
