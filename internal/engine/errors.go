package engine

import (
	"errors"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

var (
	// ErrNotFound is returned when the referenced container, network or volume does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when the daemon refuses an action because of resource state
	ErrConflict = errors.New("resource conflict")

	// ErrUnavailable is returned when the Docker daemon cannot be reached
	ErrUnavailable = errors.New("docker daemon unavailable")

	// ErrInvalid is returned when the request itself is malformed
	ErrInvalid = errors.New("invalid request")
)

// OperationError wraps a failed daemon call with the operation that failed
type OperationError struct {
	Op   string
	kind error
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() []error {
	if e.kind == nil {
		return []error{e.Err}
	}
	return []error{e.kind, e.Err}
}

// wrap classifies a daemon error and attaches the operation name
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, kind: classify(err), Err: err}
}

func classify(err error) error {
	switch {
	case errdefs.IsNotFound(err):
		return ErrNotFound
	case errdefs.IsConflict(err):
		return ErrConflict
	case errdefs.IsInvalidParameter(err):
		return ErrInvalid
	case client.IsErrConnectionFailed(err), errdefs.IsUnavailable(err):
		return ErrUnavailable
	default:
		return nil
	}
}
