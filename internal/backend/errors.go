package backend

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrMalformedResponse = errors.New("malformed response")
	ErrPartialResponse   = errors.New("partial response")
)

// StatusError is returned for any non-2xx answer other than 404. Body holds
// the raw response text, which the API does not always send as JSON.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend responded with status %d", e.Code)
	}
	return fmt.Sprintf("backend responded with status %d: %s", e.Code, e.Body)
}

func (e *StatusError) UserMessage() string {
	if e.Code >= 500 {
		return "The server is currently unavailable. Please try again later."
	}
	return fmt.Sprintf("The request was rejected (HTTP %d).", e.Code)
}

// UserMessage maps any error returned by the client to the text shown in a
// view's inline error state.
func UserMessage(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrPartialResponse):
		return "Some records could not be read and are not shown."
	case errors.Is(err, ErrMalformedResponse):
		return "The server sent an unexpected response."
	case errors.As(err, &statusErr):
		return statusErr.UserMessage()
	default:
		return "Unable to reach the server. Check your connection and try again."
	}
}
