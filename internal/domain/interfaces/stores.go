package interfaces

import domaintypes "chalresp/internal/domain/types"

// PrincipalStore holds the principals of one session.
type PrincipalStore interface {
	Register(id domaintypes.Identity) (domaintypes.Principal, error)
	RegisterWithKey(id domaintypes.Identity, key domaintypes.Key) (domaintypes.Principal, error)
	Lookup(id domaintypes.Identity) (domaintypes.Principal, error)
	// All returns every principal ordered by identity.
	All() []domaintypes.Principal
}

// KeyResolver hands out principal keys. Only the exchange engine holds one.
type KeyResolver interface {
	Key(id domaintypes.Identity) (domaintypes.Key, error)
}

// NonceRegistry remembers challenge nonces of completed exchanges.
type NonceRegistry interface {
	Seen(n domaintypes.Nonce) bool
	Mark(nonces ...domaintypes.Nonce)
}

// KeyringStore persists principal keys encrypted under a passphrase.
type KeyringStore interface {
	SaveKeyring(passphrase string, entries []domaintypes.KeyringEntry) error
	LoadKeyring(passphrase string) ([]domaintypes.KeyringEntry, error)
}
