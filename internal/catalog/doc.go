// Package catalog defines the read-only data model served by mod-hub: the
// summary rows shown in the mod list, the per-mod detail record with its
// version history, and the Source contract that a backing store must satisfy
// to feed the cache. The package carries no state of its own; the cache
// package owns snapshots built from these types and the store package
// provides the SQL-backed Source.
package catalog
