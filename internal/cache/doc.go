// Package cache keeps the in-process copy of the mod catalog. A Controller
// answers list and detail reads from an immutable State snapshot, asks the
// Policy whether a region has outlived its refresh interval, and collapses
// concurrent refreshes of the same region into a single Refresher run. A
// failed refresh leaves the previous snapshot in place and the region stale,
// so the next request retries against the store.
package cache
