// Package billing is the HTTP surface of the subscription lifecycle: signup
// initiation and finalization, plan changes, the payment provider webhook
// and the public plan listing.
//
// Handlers translate between JSON and the lifecycle engine; every business
// rule lives in svc/lifecycle. Errors are mapped to a small stable taxonomy
// of machine-readable codes, and provider internals never reach the client.
package billing
