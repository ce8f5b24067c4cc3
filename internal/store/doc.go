// Package store implements catalog.Source over database/sql. Remote libsql
// databases (libsql://, https://, wss://) go through the libsql client driver
// with the configured auth token; local files use the pure-Go SQLite driver
// opened query-only. Every statement is a fixed, parameterized query.
package store
