package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnsupportedBackend = errors.New("unsupported database backend")
)

// NewIDMismatchError reports a body id that disagrees with the id in the path
func NewIDMismatchError(pathID, bodyID string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Request path id (%s) and request body id (%s) must match", pathID, bodyID),
		Field:      "id",
	}
}

func NewUnsupportedBackendError(scheme string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrUnsupportedBackend,
		Details:    fmt.Sprintf("No store is registered for scheme %q", scheme),
		Field:      "connection_string",
	}
}

func IsUnsupportedBackendError(err error) bool {
	return errors.Is(err, ErrUnsupportedBackend)
}
