package api

import (
	"fmt"
)

// APIError is an application failure: the server answered with a
// non-success status and a parsable, human-readable detail.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// ProtocolError is a protocol failure: the response body did not parse
// as the expected structure. Status and raw body are kept as the error
// detail shown to the user.
type ProtocolError struct {
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("HTTP %d — unexpected response: %s", e.Status, e.Body)
}
