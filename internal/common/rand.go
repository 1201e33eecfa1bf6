package common

import (
	"crypto/rand"
	"math/big"
)

const otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// MakeRandOTP generates a random alphanumeric one-time password of the given
// length. Each character is drawn independently from a 62-symbol alphabet
// using crypto/rand, so the result is safe to use as a short-lived
// credential.
func MakeRandOTP(length int) (string, error) {
	max := big.NewInt(int64(len(otpAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = otpAlphabet[n.Int64()]
	}
	return string(out), nil
}
