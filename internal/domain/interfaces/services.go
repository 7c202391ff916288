package interfaces

import (
	"io"

	domaintypes "chalresp/internal/domain/types"
)

// CipherService wraps a symmetric cipher, a MAC and a random source.
//
// Implementations are safe for concurrent use as long as the bound random
// source is.
type CipherService interface {
	GenerateKey() (domaintypes.Key, error)
	GenerateNonce() (domaintypes.Nonce, error)
	Encrypt(key domaintypes.Key, plaintext []byte) ([]byte, error)
	// Decrypt fails without returning plaintext when the ciphertext was not
	// produced under key.
	Decrypt(key domaintypes.Key, ciphertext []byte) ([]byte, error)
	Authenticate(key domaintypes.Key, message []byte) ([]byte, error)
	Verify(key domaintypes.Key, message, tag []byte) bool
	// WithRand returns a service identical to this one but drawing
	// randomness from r.
	WithRand(r io.Reader) CipherService
}

// KeyringService provisions principals and moves them in and out of an
// encrypted keyring.
type KeyringService interface {
	Init(passphrase string, ids []domaintypes.Identity) ([]domaintypes.Principal, error)
	// InitFromSecret derives keys from secret instead of drawing them.
	InitFromSecret(passphrase, secret string, ids []domaintypes.Identity) ([]domaintypes.Principal, error)
	Load(passphrase string) ([]domaintypes.KeyringEntry, error)
	Fingerprints(passphrase string) ([]domaintypes.Principal, error)
	Keys(passphrase string) (map[domaintypes.Identity]domaintypes.Key, error)
}

// Observer receives every record a session emits, in emission order.
type Observer interface {
	ObserveRecord(rec domaintypes.Record)
}
