package order

import (
	"context"
	"fmt"
)

// Service is the system of record for orders and their financial state.
type Service interface {
	CreateOrder(ctx context.Context, items []LineItem, customerRef string) (*Order, error)
	RecordTransaction(ctx context.Context, reference string, kind TransactionKind, status TransactionStatus, amount string) error
	SetFinancialStatus(ctx context.Context, reference string, status FinancialStatus) error
	StatusPageURL(ctx context.Context, reference string) (string, error)
}

// ValidateLineItems rejects empty carts and non-positive ids or quantities.
func ValidateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidLineItem)
	}
	for i, it := range items {
		if it.VariantID <= 0 {
			return fmt.Errorf("%w: item %d has no variant", ErrInvalidLineItem, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidLineItem, i)
		}
	}
	return nil
}
