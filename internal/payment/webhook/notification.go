package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"fygaro-bridge/internal/payment"
)

var ErrInvalidNotification = errors.New("invalid notification")

// Notification is the verified JSON body of a payment confirmation.
type Notification struct {
	CustomReference string      `json:"customReference"`
	Amount          json.Number `json:"amount"`
	Currency        string      `json:"currency,omitempty"`
	TransactionID   string      `json:"transactionId,omitempty"`
}

// DecodeNotification parses a body that has already passed Verify and
// normalises the amount to two decimals.
func DecodeNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	if n.CustomReference == "" {
		return nil, fmt.Errorf("%w: missing customReference", ErrInvalidNotification)
	}

	amount, err := payment.ParseAmount(n.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	n.Amount = json.Number(amount)
	return &n, nil
}
