package client

import "fmt"

// Error is the single error kind surfaced by the client. Transport failures,
// non-2xx statuses, malformed envelopes and local validation failures all end
// up as an Error carrying a human-readable message and nothing else.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Local validation and envelope failures. Compare with errors.Is.
var (
	// ErrInvalidResponse indicates a 2xx response whose body is not a success envelope.
	ErrInvalidResponse = &Error{Message: "Invalid response format from server"}

	// ErrNoToken indicates an authenticated call was attempted while signed out.
	ErrNoToken = &Error{Message: "No authentication token available"}

	// ErrNoURL indicates a document or reference without a downloadable path.
	ErrNoURL = &Error{Message: "No URL found for the document."}
)

// statusError builds the message for a non-2xx response: the body's "message"
// field when present, otherwise a generic status line.
func statusError(status int, body []byte) *Error {
	if msg := errorBodyMessage(body); msg != "" {
		return &Error{Message: msg}
	}
	return errorf("HTTP error, status %d", status)
}
