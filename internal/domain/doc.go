// Package domain defines the core types and contracts shared across the server.
//
// Concept-oriented files (sample.go, subscriber.go, errors.go) hold shared types
// and cross-cutting interfaces. No implementation code - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
