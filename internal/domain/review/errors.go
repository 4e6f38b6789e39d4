package review

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrReviewNotAllowed = errors.New("review not allowed before the booking is completed")
	ErrConflict         = errors.New("review already exists")
)
