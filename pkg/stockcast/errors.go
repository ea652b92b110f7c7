package stockcast

import (
	"errors"
	"fmt"
)

// ServiceError reports a transport failure, a non-success status, or a body
// that could not be decoded, from either endpoint.
type ServiceError struct {
	Endpoint string
	Status   int    // 0 when the request never completed
	Message  string // server-provided message, if any
	Err      error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	default:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user: the server's message when it
// sent one, otherwise a generic description.
func (e *ServiceError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("Prediction failed: %d", e.Status)
	}
	return "Could not reach the prediction service."
}

// ApplicationError is a handled failure: an error field in an otherwise
// successful response, or an empty body.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }

// ErrEmptyResponse is the message used when a success response has no content.
const ErrEmptyResponse = "Received empty response from server."

// UserMessage returns the message to surface for a prediction failure.
func UserMessage(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
