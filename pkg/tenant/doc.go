// Package tenant holds the durable paying entities of the platform: the
// Tenant (a laundry business account), its admin User, its operating
// settings, and its seeded price list.
//
// The Tenant is created exactly once by the registration finalizer and then
// mutated only through status transitions and plan changes. Status
// transitions go through the store's conditional TransitionStatus so that
// concurrent sweeps and payment confirmations converge instead of clobbering
// each other.
package tenant
