package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"Not found", ErrOrderNotFound, true},
		{"Wrapped 404", &UpstreamError{Op: "set_financial_status", StatusCode: 404, Err: ErrOrderNotFound}, true},
		{"Rejected payload", &UpstreamError{Op: "record_transaction", StatusCode: 422}, true},
		{"Wrapped rejection", fmt.Errorf("apply: %w", &UpstreamError{Op: "x", StatusCode: 400}), true},
		{"Throttled", &UpstreamError{Op: "x", StatusCode: 429}, false},
		{"Request timeout", &UpstreamError{Op: "x", StatusCode: 408}, false},
		{"Server error", &UpstreamError{Op: "x", StatusCode: 503}, false},
		{"Transport error", &UpstreamError{Op: "x", Err: errors.New("connection refused")}, false},
		{"Deadline", context.DeadlineExceeded, false},
		{"Nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPermanent(tc.err))
		})
	}
}
