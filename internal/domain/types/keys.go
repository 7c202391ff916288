package types

import "encoding/hex"

const (
	// KeySize is the length in bytes of a principal's shared secret.
	KeySize = 32
	// NonceSize is the length in bytes of a challenge nonce.
	NonceSize = 16
)

// Key is a symmetric secret shared between a principal and its verifiers.
//
// Its String and GoString forms are redacted so a Key never ends up in logs.
type Key []byte

// String returns a redacted placeholder.
func (Key) String() string { return "Key(redacted)" }

// GoString returns a redacted placeholder.
func (Key) GoString() string { return "Key(redacted)" }

// Clone returns an independent copy of k.
func (k Key) Clone() Key { return append(Key(nil), k...) }

// Nonce is a single-use challenge value. Nonces are public.
type Nonce []byte

// Hex returns the lowercase hex encoding of n.
func (n Nonce) Hex() string { return hex.EncodeToString(n) }

// Clone returns an independent copy of n.
func (n Nonce) Clone() Nonce {
	if n == nil {
		return nil
	}
	return append(Nonce(nil), n...)
}

// Principal is the public view of a registered participant.
type Principal struct {
	ID          Identity    `json:"id"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// KeyringEntry pairs an identity with its key for persistence.
type KeyringEntry struct {
	Identity Identity `json:"identity"`
	Key      []byte   `json:"key"`
}
