package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// DefaultDigits is the standard verification code length.
const DefaultDigits = 6

var (
	ErrFailedToGenerateCode = errors.New("failed to generate one-time code")
	ErrInvalidCode          = errors.New("invalid one-time code")
)

var codeShape = regexp.MustCompile(`^\d+$`)

// Generate returns a random numeric code of the given length with leading
// zeros preserved. Uses crypto/rand; a failure there is not recoverable.
func Generate(digits int) (string, error) {
	if digits <= 0 {
		digits = DefaultDigits
	}

	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateCode, err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// Hash returns the hex-encoded SHA-256 digest of a code. The raw code is
// delivered out of band and never persisted.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the supplied code matches a stored digest.
// The code's shape is checked first so obviously malformed input is rejected
// without touching the digest.
func Verify(storedHash, supplied string) bool {
	supplied = strings.TrimSpace(supplied)
	if supplied == "" || !codeShape.MatchString(supplied) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(supplied)), []byte(storedHash)) == 1
}
