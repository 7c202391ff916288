// Package store provides the state containers of a simulation run.
//
// PrincipalStore and NonceStore live in memory for the duration of one
// session and are safe for concurrent use. KeyringFileStore persists
// principal keys on disk, sealed under a passphrase with scrypt and
// ChaCha20-Poly1305 and replaced atomically on every write.
package store
