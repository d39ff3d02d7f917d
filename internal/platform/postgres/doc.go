// Package postgres provides the PostgreSQL implementation of the
// store.LearningItemStore interface, its embedded goose migrations, and the
// connection setup used by the server. Queries go through database/sql with
// the pgx stdlib driver.
package postgres
