// Package entitlement decides whether a tenant may perform a gated action
// (create a staff account, create an order) given its plan limits and
// subscription status.
//
// Usage counters are injected functions, queried live on every check: the
// check gates a mutating action that will itself change the count, so a
// cached count would let tenants sail past their limit.
package entitlement
