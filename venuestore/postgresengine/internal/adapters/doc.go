// Package adapters provide database adapter implementations for the PostgreSQL venue store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, including transactions, so the store works with any
// supported connection type.
//
// Every statement is executed with positional arguments ($1, $2, ...), never with
// values spliced into the query text.
package adapters
