// Package store defines the persistence contract for learning items.
// The review scheduler depends only on these interfaces; the Postgres,
// SQLite, and DynamoDB backends live under internal/platform.
package store
