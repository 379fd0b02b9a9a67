package gift

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"smilegift/internal/models"
)

// Amount and message bounds.
const (
	MinAmount        = 1
	MaxAmount        = 10000
	DefaultAmount    = 10
	MaxMessageLength = 100
)

// Validation messages.
const (
	MsgAmountRequired = "Amount is required"
	MsgAmountTooLow   = "Amount must be at least ₹1"
	MsgAmountTooHigh  = "Amount cannot exceed ₹10,000"
	MsgMessageTooLong = "Message cannot exceed 100 characters"
)

// ParseAmount parses user input into an amount and validates it.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, models.NewFieldError("amount", MsgAmountRequired)
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, models.NewFieldError("amount", MsgAmountRequired)
	}
	return amount, ValidateAmount(amount)
}

func ValidateAmount(amount float64) error {
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return models.NewFieldError("amount", MsgAmountRequired)
	case amount < MinAmount:
		return models.NewFieldError("amount", MsgAmountTooLow)
	case amount > MaxAmount:
		return models.NewFieldError("amount", MsgAmountTooHigh)
	}
	return nil
}

// ValidateMessage bounds the optional message, counted in characters.
func ValidateMessage(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return models.NewFieldError("message", MsgMessageTooLong)
	}
	return nil
}
