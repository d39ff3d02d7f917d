// Package fsrs implements scoring.Scorer against the FSRS scheduling service
// over HTTP (POST /review). It owns the wire format, the connect and read
// timeouts, and the mapping of transport and response failures onto the
// scoring package's gateway errors.
package fsrs
