// Package crypto provides the cipher service and randomness used by the simulator.
//
// It offers two authenticated suites over a 32-byte principal key
// (AES-256-CBC with HMAC-SHA256, and ChaCha20-Poly1305), HMAC tags,
// HKDF subkey derivation, Argon2id passphrase keys, and a seeded
// ChaCha20 keystream that stands in for crypto/rand when a run has to be
// reproducible.
package crypto
