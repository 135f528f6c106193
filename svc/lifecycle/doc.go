// Package lifecycle drives tenant subscriptions from signup to cancellation.
//
// Three collaborating pieces live here:
//
//   - Engine: the request-facing operations. It initiates registrations,
//     confirms payment or OTP, changes plans and confirms upgrades.
//   - Finalizer: the single place a Tenant and its admin User are created
//     together. Its commit point is a conditional delete of the pending
//     registration, which makes finalization race-safe under at-least-once
//     confirmation delivery (webhook plus user-triggered poll).
//   - Sweeper: the periodic job that moves lapsed trials and billing cycles
//     to past_due, and optionally stale past_due tenants to canceled.
//
// Transition selection is a pure function over a tenant list and a clock
// reading, so the state machine is testable without a scheduler.
package lifecycle
