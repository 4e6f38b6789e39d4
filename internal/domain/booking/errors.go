package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidState            = errors.New("invalid booking state")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrDateConflict            = errors.New("requested dates conflict with existing bookings")
	ErrOverbooking             = errors.New("overbooking constraint violation")
	ErrTransient               = errors.New("temporary storage failure")
	ErrEquipmentNotFound       = errors.New("equipment not found")
	ErrEquipmentUnavailable    = errors.New("equipment is not available for booking")
	ErrNoProposal              = errors.New("no date proposal to accept")
	ErrBookingClosed           = errors.New("booking is cancelled or rejected")
)

// ConflictError carries the bookings that block a write. It matches
// ErrDateConflict with errors.Is.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrDateConflict.Error(), len(e.Conflicts))
}

func (e *ConflictError) Is(target error) bool { return target == ErrDateConflict }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
