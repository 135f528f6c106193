// Package plan holds the subscription plan catalog: a closed set of tiers
// with per-currency prices, display features and usage limits.
//
// Plans are reference data. They are created and updated only through
// administrative action and read by every lifecycle decision, so the package
// exposes a read-mostly Catalog service on top of a pluggable Store.
//
// The tier set is closed: a deployment may change display names and prices
// but cannot invent tiers, which keeps entitlement checks exhaustive.
//
// # Usage
//
//	catalog := plan.NewCatalog(plan.NewMemoryStore(plan.DefaultPlans()...))
//
//	plans, err := catalog.ActivePlans(ctx)
//	price, err := catalog.Price(ctx, plan.TierPro, "XAF")
//
// Sources are provided for static in-memory catalogs, YAML files maintained
// by operators, and a Mongo collection shared between instances.
package plan
