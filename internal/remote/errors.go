package remote

import (
	"errors"
	"fmt"
)

// Op names one logical remote operation.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Failure returns the user-facing description of a failed op.
func (op Op) Failure() string {
	switch op {
	case OpList:
		return "could not fetch the user list"
	case OpGet:
		return "could not fetch the user"
	case OpCreate, OpUpdate:
		return "could not save the user"
	case OpDelete:
		return "could not delete the user"
	default:
		return "request failed"
	}
}

// TransportError means no usable response was received: the request could not be
// sent, the connection failed, or the body could not be decoded.
type TransportError struct {
	Op     Op
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op.Failure(), e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError means the server answered with a non-2xx status.
type RemoteError struct {
	Op     Op
	Status int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("error %d: %s", e.Status, e.Op.Failure())
}

// IsTransport reports whether err (or anything it wraps) is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusOf returns the HTTP status carried by a RemoteError in err's chain.
func StatusOf(err error) (int, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status, true
	}
	return 0, false
}
