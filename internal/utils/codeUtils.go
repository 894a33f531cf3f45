package utils

import (
	"crypto/rand"
	"math/big"
)

// VerificationCodeLength is the number of digits in every emailed code.
const VerificationCodeLength = 6

var ten = big.NewInt(10)

// GenerateVerificationCode returns a fresh 6-digit numeric code. Each
// digit is drawn uniformly from crypto/rand.
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, VerificationCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
