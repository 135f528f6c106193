// Package intent persists payment intents: the binding between an external
// payment transaction id and what that payment is for.
//
// Confirmation handlers (webhook or polling) look the transaction id up here
// and route on the intent's purpose. Nothing is ever derived by parsing the
// transaction id string; the human-readable purpose prefix in the id exists
// only for provider dashboards.
package intent
