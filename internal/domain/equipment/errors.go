package equipment

import "errors"

var (
	ErrNotFound   = errors.New("equipment not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation error")
)
