// Package otp generates and verifies the fixed-length numeric one-time codes
// used to prove email ownership during signup.
//
// Codes are random per registration, not time-based, so RFC 6238 TOTP does
// not apply here. Only a SHA-256 digest of a code is ever stored or compared;
// comparison is constant-time.
package otp
