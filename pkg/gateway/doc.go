// Package gateway is the port to the external payment-link provider.
//
// Only two operations cross this boundary: creating a hosted payment link
// for an amount/currency/transaction id, and querying a transaction's
// settlement status. Provider authentication is entirely the adapter's
// concern; callers never see credentials, and a token-acquisition failure
// surfaces as ErrUnavailable like any other provider outage.
//
// The shipped adapter speaks the provider's REST API directly with a plain
// HTTP client: bearer tokens live in an injected TokenCache (in-memory for a
// single node, Redis-backed when multiple instances should share one
// provider token), refreshed proactively before expiry and invalidated on a
// 401. Transient transport failures are retried a bounded number of times
// with exponential backoff; business rejections are never retried.
package gateway
