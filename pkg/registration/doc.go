// Package registration holds unconfirmed signups while they await OTP and/or
// payment confirmation.
//
// A pending registration is keyed by lowercased email and lives for a short
// TTL (15 minutes by default). Creating a new one supersedes any live record
// for the same email, so at most one pending signup exists per address and
// the superseded code stops verifying. Once expired a record behaves as
// not-found on every operation; the TTL is a hard timeout, not renewable.
//
// Only the SHA-256 digest of the verification code is stored. The raw code is
// returned once from Create for out-of-band delivery and never logged.
//
// Delete is conditional: it reports whether a live record was actually
// removed. The registration finalizer uses that as its commit point, which is
// what makes finalization idempotent under racing webhook and poll
// confirmations.
package registration
