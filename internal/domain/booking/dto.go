package booking

import "time"

type ValidateRequest struct {
	EquipmentID string `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	BookingID   string `json:"booking_id,omitempty"`
}

type ValidateApprovalRequest struct {
	BookingID string `json:"booking_id"`
}

// ValidationResponse is the fixed body of both validation endpoints.
type ValidationResponse struct {
	Valid               bool       `json:"valid"`
	Message             string     `json:"message,omitempty"`
	Error               string     `json:"error,omitempty"`
	ConflictingBookings []Conflict `json:"conflicting_bookings,omitempty"`
}

type CreateRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Note        string `json:"note" binding:"max=1000"`
}

type DatesRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type ListResult struct {
	Items  []Booking `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// BusyRange is a public view of an occupied period.
type BusyRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    Status    `json:"status"`
}
