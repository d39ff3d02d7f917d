// Package sqlite provides a SQLite implementation of store.LearningItemStore
// for local development and single-user deployments. Timestamps are stored
// as fixed-width UTC text so that string comparison matches time order.
package sqlite
