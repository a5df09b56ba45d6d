package shop

import (
	"math/rand/v2"
)

const (
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength   = 8
)

// GenerateConfirmationKey produces the short code a buyer relays back
// after sending payment. Eight symbols over a 36-character alphabet is
// plenty for human matching against an order id, but nothing enforces
// uniqueness across orders and the key is not a security boundary.
func GenerateConfirmationKey() string {
	b := make([]byte, keyLength)
	for i := range b {
		b[i] = keyAlphabet[rand.IntN(len(keyAlphabet))]
	}
	return string(b)
}
