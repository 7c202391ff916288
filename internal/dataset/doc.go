// Package dataset flattens exchange traces into labeled records and writes
// them out as CSV or JSON Lines.
//
// Records never carry key material. Nonces are public protocol values and
// are included hex-encoded; proofs appear only as a truncated digest.
package dataset
