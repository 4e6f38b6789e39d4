package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"equiprent/internal/domain/auth"
	"equiprent/internal/domain/equipment"
	"equiprent/internal/events"
	"equiprent/internal/pkg/dateutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EquipmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*equipment.Equipment, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

type Service struct {
	repo      Repository
	validator *Validator
	equipment EquipmentReader
	users     UserReader
	events    events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, validator *Validator, eq EquipmentReader, users UserReader, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		repo:      repo,
		validator: validator,
		equipment: eq,
		users:     users,
		events:    pub,
		logger:    logger.With().Str("component", "booking").Logger(),
	}
}

func (s *Service) Validator() *Validator { return s.validator }

// ValidateDates runs the creation check for a caller. Renter names of the
// conflicting bookings are shown only to the owner of the equipment.
func (s *Service) ValidateDates(ctx context.Context, userID uuid.UUID, req ValidateRequest) (*Result, error) {
	res, err := s.validator.ValidateNewBooking(ctx, req.EquipmentID, req.StartDate, req.EndDate, req.BookingID)
	if err != nil || res.Valid {
		return res, err
	}
	if !s.ownsEquipment(ctx, userID, req.EquipmentID) {
		res.Conflicts = hideRenterNames(res.Conflicts)
	}
	return res, nil
}

// ValidateApproval runs the approval check on behalf of the booking's owner.
func (s *Service) ValidateApproval(ctx context.Context, ownerID uuid.UUID, bookingID string) (*Result, error) {
	id, err := uuid.Parse(strings.TrimSpace(bookingID))
	if err != nil {
		return s.validator.ValidateApproval(ctx, bookingID)
	}
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	if b.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return s.validator.ValidateApproval(ctx, bookingID)
}

func (s *Service) ownsEquipment(ctx context.Context, userID uuid.UUID, equipmentID string) bool {
	id, err := uuid.Parse(strings.TrimSpace(equipmentID))
	if err != nil || s.equipment == nil {
		return false
	}
	eq, err := s.equipment.GetByID(ctx, id)
	return err == nil && eq.OwnerID == userID
}

func hideRenterNames(conflicts []Conflict) []Conflict {
	out := make([]Conflict, len(conflicts))
	for i, c := range conflicts {
		c.RenterName = ""
		out[i] = c
	}
	return out
}

// renterView strips renter names from a conflict returned to a renter.
func renterView(err error) error {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return &ConflictError{Conflicts: hideRenterNames(conflict.Conflicts)}
	}
	return err
}

func (s *Service) creationGuard() Guard {
	return Guard{Statuses: CreationBlockingStatuses, Policy: s.validator.Policy()}
}

func (s *Service) approvalGuard() Guard {
	return Guard{Statuses: ApprovalBlockingStatuses, Policy: s.validator.Policy()}
}

func (s *Service) Create(ctx context.Context, renterID uuid.UUID, req CreateRequest) (*Booking, error) {
	eqID, err := uuid.Parse(strings.TrimSpace(req.EquipmentID))
	if err != nil {
		return nil, validationf("equipment_id must be a valid id")
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	eq, err := s.loadEquipment(ctx, eqID)
	if err != nil {
		return nil, err
	}
	if !eq.IsActive {
		return nil, ErrEquipmentUnavailable
	}
	if eq.OwnerID == renterID {
		return nil, ErrForbidden
	}

	if err := s.preflight(ctx, eqID, start, end, nil); err != nil {
		return nil, renterView(err)
	}

	b := &Booking{
		EquipmentID:   eqID,
		RenterID:      renterID,
		OwnerID:       eq.OwnerID,
		StartDate:     start,
		EndDate:       end,
		Status:        StatusPending,
		TotalAmount:   RentalDays(start, end) * eq.DailyRate,
		Currency:      eq.Currency,
		PaymentStatus: PaymentUnpaid,
		Note:          strings.TrimSpace(req.Note),
	}
	if err := s.repo.Create(ctx, b, s.creationGuard()); err != nil {
		return nil, renterView(err)
	}

	s.publish(ctx, events.BookingCreated, b, renterID, "")
	return b, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, ErrForbidden
	}
	return b, nil
}

// GetByID skips the party check; for internal callers.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the user's bookings. role is "renter", "owner" or empty for both.
func (s *Service) List(ctx context.Context, userID uuid.UUID, role string, statuses []Status, limit, offset int) (*ListResult, error) {
	f := ListFilter{Statuses: statuses, Limit: limit, Offset: offset}
	switch role {
	case "renter":
		f.RenterID = &userID
	case "owner":
		f.OwnerID = &userID
	case "":
		f.PartyID = &userID
	default:
		return nil, validationf("role must be renter or owner")
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, validationf("unknown status %q", st)
		}
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return &ListResult{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ChangeDates lets the renter move a pending request.
func (s *Service) ChangeDates(ctx context.Context, renterID, id uuid.UUID, req DatesRequest) (*Booking, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, ErrForbidden
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}
	return s.moveDates(ctx, b, start, end, renterID)
}

// Approve confirms a pending booking after the approval check passes.
func (s *Service) Approve(ctx context.Context, ownerID, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	res, err := s.validator.CheckApproval(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &ConflictError{Conflicts: res.Conflicts}
	}

	confirmed, err := s.repo.Confirm(ctx, id, s.approvalGuard())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingConfirmed, confirmed, ownerID, "")
	return confirmed, nil
}

func (s *Service) Reject(ctx context.Context, ownerID, id uuid.UUID, reason string) (*Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("reason is required")
	}
	if err := s.requireOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	b, err := s.repo.Transition(ctx, id, StatusRejected, map[string]any{"rejection_reason": reason})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingRejected, b, ownerID, reason)
	return b, nil
}

// ProposeDates stores an owner counter-proposal on a pending booking.
func (s *Service) ProposeDates(ctx context.Context, ownerID, id uuid.UUID, req DatesRequest) (*Booking, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}
	if err := s.preflight(ctx, b.EquipmentID, start, end, &b.ID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePending(ctx, id, map[string]any{
		"proposed_start_date": start,
		"proposed_end_date":   end,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingDatesProposed, updated, ownerID, "")
	return updated, nil
}

func (s *Service) AcceptProposal(ctx context.Context, renterID, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, ErrForbidden
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}
	if b.ProposedStartDate == nil || b.ProposedEndDate == nil {
		return nil, ErrNoProposal
	}
	return s.moveDates(ctx, b, *b.ProposedStartDate, *b.ProposedEndDate, renterID)
}

func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID, reason string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, ErrForbidden
	}
	if b.Status.IsTerminal() {
		return nil, ErrInvalidStatusTransition
	}
	cancelled, err := s.repo.Transition(ctx, id, StatusCancelled, map[string]any{"cancelled_by": userID})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, cancelled, userID, strings.TrimSpace(reason))
	return cancelled, nil
}

// Handover marks the equipment as handed to the renter.
func (s *Service) Handover(ctx context.Context, ownerID, id uuid.UUID) (*Booking, error) {
	if err := s.requireOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	b, err := s.repo.Transition(ctx, id, StatusOngoing, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingHandedOver, b, ownerID, "")
	return b, nil
}

func (s *Service) Complete(ctx context.Context, ownerID, id uuid.UUID) (*Booking, error) {
	if err := s.requireOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	b, err := s.repo.Transition(ctx, id, StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCompleted, b, ownerID, "")
	return b, nil
}

// Availability lists the periods in [from, to] already taken on the equipment.
func (s *Service) Availability(ctx context.Context, equipmentID uuid.UUID, from, to time.Time) ([]BusyRange, error) {
	if !to.After(from) {
		return nil, validationf("to must be after from")
	}
	candidates, err := s.repo.FindBlocking(ctx, equipmentID, CreationBlockingStatuses, nil)
	if err != nil {
		return nil, transient(err)
	}
	conflicts := s.validator.Policy().FindConflicts(from, to, candidates)
	out := make([]BusyRange, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, BusyRange{StartDate: c.StartDate, EndDate: c.EndDate, Status: c.Status})
	}
	return out, nil
}

// CancelStalePending cancels pending requests whose start date has passed.
func (s *Service) CancelStalePending(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.CancelStalePending(ctx, now.UTC())
}

// moveDates is only reached by the renter, so conflicts carry no names.
func (s *Service) moveDates(ctx context.Context, b *Booking, start, end time.Time, actorID uuid.UUID) (*Booking, error) {
	if err := s.preflight(ctx, b.EquipmentID, start, end, &b.ID); err != nil {
		return nil, renterView(err)
	}
	eq, err := s.loadEquipment(ctx, b.EquipmentID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateDates(ctx, b.ID, start, end, RentalDays(start, end)*eq.DailyRate, s.creationGuard())
	if err != nil {
		return nil, renterView(err)
	}
	s.publish(ctx, events.BookingDatesChanged, updated, actorID, "")
	return updated, nil
}

// preflight runs the creation check before a write. The write repeats it
// inside its transaction.
func (s *Service) preflight(ctx context.Context, equipmentID uuid.UUID, start, end time.Time, exclude *uuid.UUID) error {
	res, err := s.validator.CheckRange(ctx, equipmentID, start, end, exclude)
	if err != nil {
		return err
	}
	if !res.Valid {
		return &ConflictError{Conflicts: res.Conflicts}
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) loadEquipment(ctx context.Context, id uuid.UUID) (*equipment.Equipment, error) {
	eq, err := s.equipment.GetByID(ctx, id)
	if errors.Is(err, equipment.ErrNotFound) {
		return nil, ErrEquipmentNotFound
	}
	return eq, err
}

func (s *Service) publish(ctx context.Context, eventType string, b *Booking, actorID uuid.UUID, reason string) {
	p := events.BookingPayload{
		BookingID:         b.ID,
		EquipmentID:       b.EquipmentID,
		RenterID:          b.RenterID,
		OwnerID:           b.OwnerID,
		Status:            string(b.Status),
		StartDate:         b.StartDate,
		EndDate:           b.EndDate,
		ProposedStartDate: b.ProposedStartDate,
		ProposedEndDate:   b.ProposedEndDate,
		Reason:            reason,
		ActorID:           actorID,
	}
	if s.equipment != nil {
		if eq, err := s.equipment.GetByID(ctx, b.EquipmentID); err == nil {
			p.EquipmentTitle = eq.Title
		}
	}
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, b.RenterID); err == nil {
			p.RenterName, p.RenterEmail = u.Name, u.Email
		}
		if u, err := s.users.GetByID(ctx, b.OwnerID); err == nil {
			p.OwnerName, p.OwnerEmail = u.Name, u.Email
		}
	}

	if err := s.events.PublishJSON(eventType, p); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("booking_id", b.ID.String()).Msg("publish failed")
	}
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := dateutil.Parse(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("start_date is not a valid date")
	}
	end, err := dateutil.Parse(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("end_date is not a valid date")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, validationf("end_date must be after start_date")
	}
	return start, end, nil
}
