// Package migrate applies the embedded SQL schema migrations of a store
// backend using goose's provider API.
package migrate
