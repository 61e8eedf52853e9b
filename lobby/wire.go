package lobby

import (
	"errors"
)

// StatusOK is the status of every successful directory response.
const StatusOK = "OK"

// Request is a directory command sent over a message transport.
type Request struct {
	Op      string            `json:"op"`
	Filters map[string]string `json:"filters,omitempty"`
	Session *Session          `json:"session,omitempty"`
	Secret  string            `json:"secret,omitempty"`
}

const (
	OpList   = "list"
	OpAdd    = "add"
	OpRemove = "remove"
)

// Response is the reply to a Request or to an HTTP directory call.
type Response struct {
	Status   string    `json:"status"`
	Sessions []Session `json:"sessions,omitempty"`
	Secret   string    `json:"secret,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Err converts a non-OK response into an error.
func (r *Response) Err() error {
	if r.Status == StatusOK {
		return nil
	}
	if r.Error != "" {
		return errors.New("lobby: directory: " + r.Error)
	}
	if r.Status == "" {
		return errors.New("lobby: directory: empty response status")
	}
	return errors.New("lobby: directory: status " + r.Status)
}
