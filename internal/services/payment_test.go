package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhnValid(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111 1111 1111 1111", true},
		{"4111-1111-1111-1111", true},
		{"378282246310005", true},
		{"4012888888881881", true},
		{"1234567890123456", false},
		{"4111111111111112", false},
		{"79927398713", false}, // valid checksum, too short for a card
		{"4111a11111111111", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, LuhnValid(tt.number))
		})
	}
}

func TestPaymentDetails_FieldErrors(t *testing.T) {
	valid := PaymentDetails{
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "09/27",
		CVV:            "123",
		CardholderName: "Ada Lovelace",
	}
	assert.Empty(t, valid.fieldErrors())
	assert.Equal(t, "1111", valid.Last4())

	invalid := PaymentDetails{
		CardNumber:     "1234567890123456",
		ExpiryDate:     "13/27",
		CVV:            "12",
		CardholderName: " ",
	}
	details := invalid.fieldErrors()
	assert.Contains(t, details, "cardNumber")
	assert.Contains(t, details, "expiryDate")
	assert.Contains(t, details, "cvv")
	assert.Contains(t, details, "cardholderName")
}

func TestPaymentDetails_ExpiryFormat(t *testing.T) {
	for _, expiry := range []string{"1/27", "01/2027", "00/27", "0127", ""} {
		p := PaymentDetails{CardNumber: "4111111111111111", ExpiryDate: expiry, CVV: "1234", CardholderName: "A"}
		assert.Contains(t, p.fieldErrors(), "expiryDate", expiry)
	}
}
