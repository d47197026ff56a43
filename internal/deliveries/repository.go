// Package deliveries keeps a ledger of webhook deliveries so a redelivered
// payment notification is not applied to the Order Service twice.
// Only delivery keys are stored, never orders or transactions.
package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
)

// ClaimLease is how long a processing claim blocks redeliveries. A claim
// older than this was abandoned (crash, failed release) and may be taken over.
const ClaimLease = 2 * time.Minute

var ErrUnknownDelivery = errors.New("unknown delivery")

// ClaimResult is the outcome of claiming a delivery key.
type ClaimResult int

const (
	// Claimed: the caller owns the delivery and must process it.
	Claimed ClaimResult = iota
	// AlreadyProcessed: an earlier delivery finished; acknowledge only.
	AlreadyProcessed
	// InFlight: another delivery holds a live lease on the key.
	InFlight
)

func (c ClaimResult) String() string {
	switch c {
	case Claimed:
		return "claimed"
	case AlreadyProcessed:
		return "already_processed"
	case InFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

type Repository interface {
	// Claim registers the key, or takes over a processing claim whose lease
	// has expired.
	Claim(ctx context.Context, key, reference string) (ClaimResult, error)
	MarkProcessed(ctx context.Context, key, note string) error
	// Release forgets an unprocessed claim so a redelivery can retry it.
	Release(ctx context.Context, key string) error
}

// Key identifies one notification: the order reference plus the signed timestamp.
func Key(reference string, timestamp int64) string {
	return fmt.Sprintf("%s:%d", reference, timestamp)
}
