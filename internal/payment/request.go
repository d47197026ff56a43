package payment

import (
	"fmt"
	"unicode"
)

const maxReferenceLen = 255

// PaymentRequest is the signed part of a pay link. Build it with
// NewPaymentRequest; the zero value is not valid.
type PaymentRequest struct {
	amount    string
	currency  string
	reference string
}

func NewPaymentRequest(amount, currency, reference string) (PaymentRequest, error) {
	a, err := ParseAmount(amount)
	if err != nil {
		return PaymentRequest{}, err
	}
	c, err := ParseCurrency(currency)
	if err != nil {
		return PaymentRequest{}, err
	}
	if err := validateReference(reference); err != nil {
		return PaymentRequest{}, err
	}
	return PaymentRequest{amount: a, currency: c, reference: reference}, nil
}

func (p PaymentRequest) Amount() string    { return p.amount }
func (p PaymentRequest) Currency() string  { return p.currency }
func (p PaymentRequest) Reference() string { return p.reference }

func validateReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	if len(ref) > maxReferenceLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidReference, maxReferenceLen)
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidReference)
		}
	}
	return nil
}

// RequestShape is how the shopper's cart arrived at /pay.
type RequestShape int

const (
	ShapeSingleItem RequestShape = iota
	ShapeItemList
)

func (s RequestShape) String() string {
	switch s {
	case ShapeSingleItem:
		return "single_item"
	case ShapeItemList:
		return "item_list"
	default:
		return "unknown"
	}
}
