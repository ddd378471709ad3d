package scheduler

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrObjectAlreadyExists is returned when a job or trigger key is already stored.
	ErrObjectAlreadyExists = errors.New("object already exists")
	ErrJobNotFound         = errors.New("job not found")
	// ErrIntegrityViolation marks a storage uniqueness or integrity constraint failure.
	ErrIntegrityViolation = errors.New("integrity constraint violation")
	ErrSchedulerShutdown  = errors.New("scheduler is shut down")
)

// PersistenceError reports a failure of the underlying job store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AlreadyExists returns an error for a stored key that is stored again.
func AlreadyExists(kind string, key fmt.Stringer) error {
	return errors.Wrapf(ErrObjectAlreadyExists, "%s %s", kind, key)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrObjectAlreadyExists)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
