package domain

import "errors"

// Error kinds surfaced by the ownership transfer workflow. Callers classify
// with errors.Is; HTTP handlers map each kind to one status code.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal error")
)

// ConflictError is a conflict with a stable machine-readable code.
type ConflictError struct {
	Code string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Code
}

// Is makes every ConflictError match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

var (
	ErrTransferAlreadyPending = &ConflictError{Code: "transfer_already_pending"}
	ErrTransferNotPending     = &ConflictError{Code: "transfer_not_pending"}
	ErrTransferExpired        = &ConflictError{Code: "transfer_expired"}
)

// ConflictCode returns the code of a conflict error, or "" when err is not one.
func ConflictCode(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
