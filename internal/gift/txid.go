package gift

import (
	"math/rand/v2"

	"smilegift/internal/models"
)

const (
	txIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	txIDLength   = 26
)

// ManualTransactionID is submitted when no link was dispatched.
const ManualTransactionID = models.ManualTransactionID

// NewTransactionID returns a random base36 correlation token. It is not a
// secret and proves nothing about the payment.
func NewTransactionID() string {
	b := make([]byte, txIDLength)
	for i := range b {
		b[i] = txIDAlphabet[rand.IntN(len(txIDAlphabet))]
	}
	return string(b)
}
