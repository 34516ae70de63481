// Package storage defines the data-access contract used by the
// authentication pipeline and the sentinel errors shared by its
// implementations.
//
// The pipeline only needs two lookups, consumer by key and token by value
// (optionally scoped to a consumer), captured by [Finder]. Adapters
// (memory, postgres, redis) additionally implement [Writer] so fixtures and
// tests can populate them.
package storage
