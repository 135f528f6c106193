// Package token issues and parses the compact HMAC-signed bearer tokens
// handed to an admin user when their registration is finalized.
//
// A token is the base64url JSON payload joined with a truncated HMAC-SHA256
// signature. It is deliberately not a full JWT: there is a single issuer and
// a single verifier, so algorithm agility and header metadata add nothing.
package token
