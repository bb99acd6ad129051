package services

import (
	"regexp"
	"strings"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// PaymentDetails are the card fields submitted at checkout. Only the last four
// digits of the number outlive the request.
type PaymentDetails struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	ExpiryDate     string `json:"expiryDate" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardholderName string `json:"cardholderName" validate:"required"`
}

// normalizeCardNumber strips spaces and dashes. It returns "" when anything
// else than digits remains.
func normalizeCardNumber(number string) string {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return digits
}

// LuhnValid reports whether number passes the mod-10 checksum.
func LuhnValid(number string) bool {
	digits := normalizeCardNumber(number)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// fieldErrors checks the card without contacting any payment network.
func (p PaymentDetails) fieldErrors() map[string]string {
	details := make(map[string]string)
	if !LuhnValid(p.CardNumber) {
		details["cardNumber"] = "card number is invalid"
	}
	if !expiryPattern.MatchString(p.ExpiryDate) {
		details["expiryDate"] = "expiry date must be MM/YY"
	}
	if !cvvPattern.MatchString(p.CVV) {
		details["cvv"] = "cvv must be 3 or 4 digits"
	}
	if strings.TrimSpace(p.CardholderName) == "" {
		details["cardholderName"] = "cardholder name is required"
	}
	return details
}

// Last4 returns the last four digits of the card number.
func (p PaymentDetails) Last4() string {
	digits := normalizeCardNumber(p.CardNumber)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
