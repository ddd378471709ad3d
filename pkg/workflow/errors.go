package workflow

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownScheduler           = errors.New("unknown scheduler")
	ErrSchedulerAlreadyRegistered = errors.New("scheduler already registered")
	ErrNoDefaultScheduler         = errors.New("no default scheduler")
	// ErrAllRecoveryAttemptsFailed is matched by every *AllRecoveryAttemptsFailedError.
	ErrAllRecoveryAttemptsFailed = errors.New("all recovery attempts failed")
)

// UnknownSchedulerError is returned when a rule or condition names a scheduler
// nobody registered.
type UnknownSchedulerError struct {
	Name string
}

func (e *UnknownSchedulerError) Error() string {
	return fmt.Sprintf("unknown scheduler %q", e.Name)
}

func (e *UnknownSchedulerError) Is(target error) bool {
	return target == ErrUnknownScheduler
}

// AllRecoveryAttemptsFailedError is returned by Recovery.Start once the attempt
// budget is used up.
type AllRecoveryAttemptsFailedError struct {
	Job      string
	Attempts int
}

func (e *AllRecoveryAttemptsFailedError) Error() string {
	return fmt.Sprintf("all %d recovery attempts of job %s failed", e.Attempts, e.Job)
}

func (e *AllRecoveryAttemptsFailedError) Is(target error) bool {
	return target == ErrAllRecoveryAttemptsFailed
}
