package order

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidLineItem = errors.New("invalid line item")
	ErrInvalidCustomer = errors.New("invalid customer id")
)

// UpstreamError is a failed or unexpected Order Service response.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order service %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("order service %s: status %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsPermanent reports whether retrying the same call cannot succeed: the
// order does not exist or Shopify rejected the request itself (4xx other
// than timeout and throttling).
func IsPermanent(err error) bool {
	if errors.Is(err, ErrOrderNotFound) {
		return true
	}
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return false
	}
	switch upErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return upErr.StatusCode >= 400 && upErr.StatusCode < 500
}
