package payment

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrInvalidReference     = errors.New("invalid reference")
	ErrMissingConfiguration = errors.New("missing signer configuration")
	ErrInvalidToken         = errors.New("invalid payment token")
)
