package simulator

import "errors"

// Validation errors returned by engine commands. None of them change engine state.
var (
	ErrEmptyContent     = errors.New("message content is required")
	ErrMissingGroup     = errors.New("message group ID is required for FIFO queues")
	ErrDuplicateMessage = errors.New("duplicate message rejected")
	ErrNothingInFlight  = errors.New("no messages currently processing")
	ErrInvalidBatchSize = errors.New("batch size out of range")
	ErrQueueMismatch    = errors.New("queue kind does not match the active queue")
	ErrUnknownQueueKind = errors.New("unknown queue kind")
	ErrInvalidConfig    = errors.New("invalid simulator config")
)

// IsValidationError reports whether err is caused by bad caller input
// rather than by the current state of the queue.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrMissingGroup) ||
		errors.Is(err, ErrInvalidBatchSize) ||
		errors.Is(err, ErrQueueMismatch) ||
		errors.Is(err, ErrUnknownQueueKind)
}
