package cli

import (
	"errors"
	"fmt"
	"net/http"

	"sgu-cli/internal/remote"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

var errConfirmationRequired = errors.New("refusing to delete without confirmation: pass --yes or run in a terminal")

// asNotFound turns a 404 from the service into a notFoundError for id.
func asNotFound(err error, id string) error {
	if status, ok := remote.StatusOf(err); ok && status == http.StatusNotFound {
		return errNotFound("user", id)
	}
	return err
}

// describeErr is the one-line message printed on stderr.
func describeErr(err error) string {
	var te *remote.TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s: %v (is the service running at %s?)", te.Op.Failure(), te.Err, te.URL)
	}
	return err.Error()
}
