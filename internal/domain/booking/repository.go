package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Guard is the availability re-check applied inside a write transaction.
type Guard struct {
	Statuses []Status
	Policy   Policy
}

type ListFilter struct {
	RenterID *uuid.UUID
	OwnerID  *uuid.UUID
	// PartyID matches bookings where the user is renter or owner.
	PartyID  *uuid.UUID
	Statuses []Status
	Limit    int
	Offset   int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// FindBlocking lists bookings of the equipment in the given statuses,
	// optionally excluding one booking.
	FindBlocking(ctx context.Context, equipmentID uuid.UUID, statuses []Status, exclude *uuid.UUID) ([]Conflict, error)
	Create(ctx context.Context, b *Booking, g Guard) error
	// UpdateDates moves a pending booking to new dates and clears any proposal.
	UpdateDates(ctx context.Context, id uuid.UUID, start, end time.Time, total int64, g Guard) (*Booking, error)
	// Confirm approves a pending booking.
	Confirm(ctx context.Context, id uuid.UUID, g Guard) (*Booking, error)
	Transition(ctx context.Context, id uuid.UUID, to Status, fields map[string]any) (*Booking, error)
	UpdatePending(ctx context.Context, id uuid.UUID, fields map[string]any) (*Booking, error)
	List(ctx context.Context, f ListFilter) ([]Booking, int64, error)
	MarkPaidTx(tx *gorm.DB, id uuid.UUID) (*Booking, error)
	MarkRefundedTx(tx *gorm.DB, id uuid.UUID) (*Booking, error)
	CancelStalePending(ctx context.Context, startedBefore time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type conflictRow struct {
	ID         uuid.UUID `gorm:"column:id"`
	StartDate  time.Time `gorm:"column:start_date"`
	EndDate    time.Time `gorm:"column:end_date"`
	Status     string    `gorm:"column:status"`
	RenterName *string   `gorm:"column:renter_name"`
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(m), nil
}

func (r *repository) FindBlocking(ctx context.Context, equipmentID uuid.UUID, statuses []Status, exclude *uuid.UUID) ([]Conflict, error) {
	return findBlocking(r.db.WithContext(ctx), equipmentID, statuses, exclude)
}

func findBlocking(db *gorm.DB, equipmentID uuid.UUID, statuses []Status, exclude *uuid.UUID) ([]Conflict, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	q := db.Table("bookings").
		Select("bookings.id, bookings.start_date, bookings.end_date, bookings.status, users.name AS renter_name").
		Joins("LEFT JOIN users ON users.id = bookings.renter_id").
		Where("bookings.equipment_id = ?", equipmentID).
		Where("bookings.status IN ?", statusStrings(statuses))
	if exclude != nil {
		q = q.Where("bookings.id <> ?", *exclude)
	}

	var rows []conflictRow
	if err := q.Order("bookings.start_date ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Conflict, 0, len(rows))
	for _, row := range rows {
		c := Conflict{
			ID:        row.ID,
			StartDate: row.StartDate.UTC(),
			EndDate:   row.EndDate.UTC(),
			Status:    Status(row.Status),
		}
		if row.RenterName != nil {
			c.RenterName = *row.RenterName
		}
		out = append(out, c)
	}
	return out, nil
}

// lockEquipment takes a row lock on the equipment so concurrent writers for
// the same item serialize. It also rejects inactive or missing equipment.
func lockEquipment(tx *gorm.DB, equipmentID uuid.UUID) error {
	var row struct {
		ID       uuid.UUID `gorm:"column:id"`
		IsActive bool      `gorm:"column:is_active"`
	}
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Table("equipment").
		Select("id, is_active").
		Where("id = ?", equipmentID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return transient(res.Error)
	}
	if res.RowsAffected == 0 || !row.IsActive {
		return ErrEquipmentUnavailable
	}
	return nil
}

func recheck(tx *gorm.DB, equipmentID uuid.UUID, start, end time.Time, exclude *uuid.UUID, g Guard) error {
	if err := lockEquipment(tx, equipmentID); err != nil {
		return err
	}
	candidates, err := findBlocking(tx, equipmentID, g.Statuses, exclude)
	if err != nil {
		return transient(err)
	}
	if conflicts := g.Policy.FindConflicts(start, end, candidates); len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (r *repository) Create(ctx context.Context, b *Booking, g Guard) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := recheck(tx, b.EquipmentID, b.StartDate, b.EndDate, nil, g); err != nil {
			return err
		}
		m := toModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*b = *toDomain(m)
		return nil
	})
	return mapWriteError(err)
}

func (r *repository) UpdateDates(ctx context.Context, id uuid.UUID, start, end time.Time, total int64, g Guard) (*Booking, error) {
	var out *Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockBooking(tx, id)
		if err != nil {
			return err
		}
		if current.Status != string(StatusPending) {
			return ErrInvalidState
		}
		if err := recheck(tx, current.EquipmentID, start, end, &id, g); err != nil {
			return err
		}
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", id, string(StatusPending)).
			Updates(map[string]any{
				"start_date":          start,
				"end_date":            end,
				"total_amount":        total,
				"proposed_start_date": nil,
				"proposed_end_date":   nil,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		out, err = reload(tx, id)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

func (r *repository) Confirm(ctx context.Context, id uuid.UUID, g Guard) (*Booking, error) {
	var out *Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockBooking(tx, id)
		if err != nil {
			return err
		}
		if current.Status != string(StatusPending) {
			return ErrInvalidState
		}
		if err := recheck(tx, current.EquipmentID, current.StartDate, current.EndDate, &id, g); err != nil {
			return err
		}

		// compare-and-set: a concurrent approve or cancel wins
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", id, string(StatusPending)).
			Updates(map[string]any{
				"status":              string(StatusConfirmed),
				"proposed_start_date": nil,
				"proposed_end_date":   nil,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		out, err = reload(tx, id)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, to Status, fields map[string]any) (*Booking, error) {
	var out *Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockBooking(tx, id)
		if err != nil {
			return err
		}
		from := Status(current.Status)
		if !CanTransition(from, to) {
			return ErrInvalidStatusTransition
		}

		updates := map[string]any{}
		for k, v := range fields {
			updates[k] = v
		}
		updates["status"] = string(to)
		updates["updated_at"] = time.Now().UTC()

		res := tx.Model(&bookingModel{}).Where("id = ? AND status = ?", id, string(from)).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidStatusTransition
		}
		out, err = reload(tx, id)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

func (r *repository) UpdatePending(ctx context.Context, id uuid.UUID, fields map[string]any) (*Booking, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&bookingModel{}).Where("id = ? AND status = ?", id, string(StatusPending)).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidState
	}
	return r.GetByID(ctx, id)
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.RenterID != nil {
		q = q.Where("renter_id = ?", *f.RenterID)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.PartyID != nil {
		q = q.Where("(renter_id = ? OR owner_id = ?)", *f.PartyID, *f.PartyID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []bookingModel
	if err := q.Order("start_date DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomain(m))
	}
	return out, total, nil
}

// MarkPaidTx records a settled payment inside the caller's transaction. A
// confirmed booking moves to in_progress. Calling it twice is a no-op. A
// cancelled or rejected booking is left untouched and ErrBookingClosed is
// returned; the caller must give the money back.
func (r *repository) MarkPaidTx(tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	current, err := lockBooking(tx, id)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == string(PaymentPaid) {
		return toDomain(*current), nil
	}
	if st := Status(current.Status); st == StatusCancelled || st == StatusRejected {
		return toDomain(*current), ErrBookingClosed
	}

	updates := map[string]any{
		"payment_status": string(PaymentPaid),
		"updated_at":     time.Now().UTC(),
	}
	if Status(current.Status) == StatusConfirmed {
		updates["status"] = string(StatusInProgress)
	}
	if err := tx.Model(&bookingModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return reload(tx, id)
}

// MarkRefundedTx flips the booking's payment status to refunded inside the
// caller's transaction. An unpaid booking is flipped too, for a charge that
// arrived after the booking closed and went straight back.
func (r *repository) MarkRefundedTx(tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	current, err := lockBooking(tx, id)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == string(PaymentRefunded) {
		return toDomain(*current), nil
	}
	err = tx.Model(&bookingModel{}).Where("id = ?", id).Updates(map[string]any{
		"payment_status": string(PaymentRefunded),
		"updated_at":     time.Now().UTC(),
	}).Error
	if err != nil {
		return nil, err
	}
	return reload(tx, id)
}

func (r *repository) CancelStalePending(ctx context.Context, startedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("status = ? AND start_date < ?", string(StatusPending), startedBefore).
		Updates(map[string]any{
			"status":     string(StatusCancelled),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func lockBooking(tx *gorm.DB, id uuid.UUID) (*bookingModel, error) {
	var m bookingModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func reload(tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	var m bookingModel
	if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomain(m), nil
}

// mapWriteError turns store-level constraint violations into ErrOverbooking.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01":
			return ErrOverbooking
		case "23505":
			if pgErr.ConstraintName == "bookings_no_overlap" {
				return ErrOverbooking
			}
		}
	}
	return err
}
