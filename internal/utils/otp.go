package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NumericCode returns a cryptographically random code of n decimal
// digits, zero-padded. Used for the one-time password-reset codes.
func NumericCode(n int) (string, error) {
	if n < 1 {
		n = 6
	}
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
