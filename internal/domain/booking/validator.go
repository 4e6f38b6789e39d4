package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"equiprent/internal/metrics"
	"equiprent/internal/pkg/dateutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	opValidateNew      = "validate_new"
	opValidateApproval = "validate_approval"
)

// Result is the outcome of a validation that reached the data set.
// A date collision is a normal result with Valid=false, not an error.
type Result struct {
	Valid     bool       `json:"valid"`
	Conflicts []Conflict `json:"conflicting_bookings,omitempty"`
}

// Validator checks requested date ranges against existing bookings.
// It only reads and keeps no state between calls.
type Validator struct {
	repo    Repository
	policy  Policy
	timeout time.Duration
	logger  zerolog.Logger
}

func NewValidator(repo Repository, policy Policy, queryTimeout time.Duration, logger zerolog.Logger) *Validator {
	return &Validator{
		repo:    repo,
		policy:  policy,
		timeout: queryTimeout,
		logger:  logger.With().Str("component", "booking_validator").Logger(),
	}
}

func (v *Validator) Policy() Policy { return v.policy }

// ValidateNewBooking checks raw input for a new booking or a date change.
// excludeBookingID may be empty.
func (v *Validator) ValidateNewBooking(ctx context.Context, equipmentID, startDate, endDate, excludeBookingID string) (*Result, error) {
	eqID, start, end, exclude, err := parseNewBookingInput(equipmentID, startDate, endDate, excludeBookingID)
	if err != nil {
		v.record(opValidateNew, nil, err)
		return nil, err
	}
	res, err := v.CheckRange(ctx, eqID, start, end, exclude)
	v.record(opValidateNew, res, err)
	return res, err
}

// CheckRange runs the creation check for already parsed input.
func (v *Validator) CheckRange(ctx context.Context, equipmentID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*Result, error) {
	if equipmentID == uuid.Nil {
		return nil, validationf("equipment_id is required")
	}
	if !end.After(start) {
		return nil, validationf("end_date must be after start_date")
	}
	return v.check(ctx, equipmentID, start, end, CreationBlockingStatuses, exclude)
}

// ValidateApproval checks whether a pending booking can be confirmed.
func (v *Validator) ValidateApproval(ctx context.Context, bookingID string) (*Result, error) {
	id, err := uuid.Parse(strings.TrimSpace(bookingID))
	if err != nil {
		err = validationf("booking_id must be a valid id")
		v.record(opValidateApproval, nil, err)
		return nil, err
	}
	res, err := v.CheckApproval(ctx, id)
	v.record(opValidateApproval, res, err)
	return res, err
}

func (v *Validator) CheckApproval(ctx context.Context, bookingID uuid.UUID) (*Result, error) {
	qctx, cancel := v.withTimeout(ctx)
	defer cancel()

	b, err := v.repo.GetByID(qctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}
	return v.check(ctx, b.EquipmentID, b.StartDate, b.EndDate, ApprovalBlockingStatuses, &b.ID)
}

func (v *Validator) check(ctx context.Context, equipmentID uuid.UUID, start, end time.Time, statuses []Status, exclude *uuid.UUID) (*Result, error) {
	qctx, cancel := v.withTimeout(ctx)
	defer cancel()

	candidates, err := v.repo.FindBlocking(qctx, equipmentID, statuses, exclude)
	if err != nil {
		v.logger.Warn().Err(err).Str("equipment_id", equipmentID.String()).Msg("blocking bookings query failed")
		return nil, transient(err)
	}
	conflicts := v.policy.FindConflicts(start, end, candidates)
	if len(conflicts) > 0 {
		return &Result{Valid: false, Conflicts: conflicts}, nil
	}
	return &Result{Valid: true}, nil
}

func (v *Validator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}

func (v *Validator) record(op string, res *Result, err error) {
	metrics.IncBookingValidation(op, Outcome(res, err))
}

// Outcome names a validation result for metrics and logs.
func Outcome(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid_input"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case err != nil:
		return "transient"
	case res != nil && !res.Valid:
		return "conflict"
	default:
		return "valid"
	}
}

func parseNewBookingInput(equipmentID, startDate, endDate, excludeBookingID string) (uuid.UUID, time.Time, time.Time, *uuid.UUID, error) {
	equipmentID = strings.TrimSpace(equipmentID)
	if equipmentID == "" {
		return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("equipment_id is required")
	}
	eqID, err := uuid.Parse(equipmentID)
	if err != nil || eqID == uuid.Nil {
		return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("equipment_id must be a valid id")
	}
	start, err := dateutil.Parse(startDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("start_date is not a valid date")
	}
	end, err := dateutil.Parse(endDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("end_date is not a valid date")
	}
	if !end.After(start) {
		return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("end_date must be after start_date")
	}

	var exclude *uuid.UUID
	if s := strings.TrimSpace(excludeBookingID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, time.Time{}, time.Time{}, nil, validationf("booking_id must be a valid id")
		}
		exclude = &id
	}
	return eqID, start, end, exclude, nil
}
