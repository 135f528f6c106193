// Package binder decodes HTTP request payloads into typed values.
package binder
