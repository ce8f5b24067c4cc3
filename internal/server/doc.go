// Package server hosts the Fiber HTTP service and its middleware chain:
// panic recovery, request IDs, CORS and structured access logs. Handlers
// depend on the narrow CatalogService interface rather than the cache
// package directly, so routes can be exercised with fakes, and all cache
// errors are rendered through RenderError to keep status codes consistent.
package server
