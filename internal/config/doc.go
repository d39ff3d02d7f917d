// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml, and VOCAB_-prefixed environment
// variables. It provides type-safe access to the settings needed by the
// server, the selected store backend, and the scoring gateway client.
package config
