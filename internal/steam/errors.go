package steam

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by RemoteError.
var (
	// ErrUnexpectedStatus indicates a non-200 HTTP response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrUnexpectedPayload indicates a body that is not the expected JSON shape.
	ErrUnexpectedPayload = errors.New("unexpected response payload")
)

// RemoteError reports a failed Steam Web API call. It never carries the API key.
type RemoteError struct {
	// Endpoint is the API method path, e.g. "IPlayerService/GetOwnedGames/v0001".
	Endpoint string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("steam API %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("steam API %s: %v", e.Endpoint, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
