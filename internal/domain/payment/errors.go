package payment

import "errors"

var (
	ErrNotFound           = errors.New("payment not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotPayable         = errors.New("booking is not awaiting payment")
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)
