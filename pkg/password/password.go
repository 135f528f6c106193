package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

var (
	ErrTooShort      = errors.New("password is too short")
	ErrTooLong       = errors.New("password exceeds bcrypt's 72 byte limit")
	ErrHashFailed    = errors.New("failed to hash password")
	ErrWrongPassword = errors.New("password does not match")
)

// Validate enforces the minimum policy before hashing.
func Validate(raw string) error {
	if len(raw) < MinLength {
		return ErrTooShort
	}
	if len(raw) > 72 {
		return ErrTooLong
	}
	return nil
}

// Hash validates and bcrypt-hashes a raw password.
func Hash(raw string) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Join(ErrHashFailed, err)
	}
	return string(hash), nil
}

// Compare checks a raw password against a stored hash.
func Compare(hash, raw string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
