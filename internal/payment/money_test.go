package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{name: "Two decimals", input: "19.99", expected: "19.99"},
		{name: "One decimal padded", input: "19.9", expected: "19.90"},
		{name: "Integer padded", input: "20", expected: "20.00"},
		{name: "Trailing zeros accepted", input: "5.500", expected: "5.50"},
		{name: "Zero", input: "0", expected: "0.00"},
		{name: "Surrounding space", input: " 7.25 ", expected: "7.25"},
		{name: "Three significant decimals", input: "19.999", expectErr: true},
		{name: "Negative", input: "-1.00", expectErr: true},
		{name: "Empty", input: "", expectErr: true},
		{name: "Not a number", input: "ten", expectErr: true},
		{name: "Exponent", input: "1e2", expectErr: true},
		{name: "Huge negative exponent", input: "1e-999999999", expectErr: true},
		{name: "Explicit sign", input: "+1.00", expectErr: true},
		{name: "Missing integer part", input: ".50", expectErr: true},
		{name: "Hex", input: "0x10", expectErr: true},
		{name: "Too many digits", input: "1234567890123456789", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseCurrency(t *testing.T) {
	t.Run("Supported", func(t *testing.T) {
		code, err := ParseCurrency("usd")
		assert.NoError(t, err)
		assert.Equal(t, "USD", code)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseCurrency("US")
		assert.ErrorIs(t, err, ErrInvalidCurrency)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := ParseCurrency("XXX")
		assert.ErrorIs(t, err, ErrInvalidCurrency)
	})
}

func TestNewPaymentRequest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req, err := NewPaymentRequest("19.99", "USD", "#1001")
		assert.NoError(t, err)
		assert.Equal(t, "19.99", req.Amount())
		assert.Equal(t, "USD", req.Currency())
		assert.Equal(t, "#1001", req.Reference())
	})

	t.Run("Empty reference", func(t *testing.T) {
		_, err := NewPaymentRequest("19.99", "USD", "")
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("Control characters", func(t *testing.T) {
		_, err := NewPaymentRequest("19.99", "USD", "#10\n01")
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("Bad amount wins over bad reference", func(t *testing.T) {
		_, err := NewPaymentRequest("abc", "USD", "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRequestShapeString(t *testing.T) {
	assert.Equal(t, "single_item", ShapeSingleItem.String())
	assert.Equal(t, "item_list", ShapeItemList.String())
	assert.Equal(t, "unknown", RequestShape(9).String())
}
