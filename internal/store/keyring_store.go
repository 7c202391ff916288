package store

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"

	"chalresp/internal/domain"
	"chalresp/internal/util/memzero"
)

// ErrKeyringNotFound is returned when no keyring exists at the store path.
var ErrKeyringNotFound = errors.New("keyring not found")

// keyringFile is the plaintext sealed inside the envelope.
type keyringFile struct {
	Principals []domain.KeyringEntry `json:"principals"`
}

// KeyringFileStore persists principal keys to a single encrypted file.
type KeyringFileStore struct {
	path string
	kdf  kdfParams
	rand io.Reader

	mu sync.Mutex
}

// KeyringOption customises a KeyringFileStore.
type KeyringOption func(*KeyringFileStore)

// WithScryptParams overrides the scrypt cost of new envelopes.
func WithScryptParams(n, r, p int) KeyringOption {
	return func(s *KeyringFileStore) { s.kdf = kdfParams{N: n, R: r, P: p} }
}

// WithKeyringRand sets the source of salts and nonces.
func WithKeyringRand(r io.Reader) KeyringOption {
	return func(s *KeyringFileStore) { s.rand = r }
}

// NewKeyringFileStore returns a store for the keyring at path.
func NewKeyringFileStore(path string, opts ...KeyringOption) *KeyringFileStore {
	s := &KeyringFileStore{path: path, kdf: defaultKDF()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the keyring location.
func (s *KeyringFileStore) Path() string { return s.path }

// SaveKeyring seals entries under passphrase and replaces the keyring file.
func (s *KeyringFileStore) SaveKeyring(passphrase string, entries []domain.KeyringEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(keyringFile{Principals: entries})
	if err != nil {
		return errors.Wrap(err, "encode keyring")
	}
	defer memzero.Zero(raw)

	sealed, err := seal(passphrase, raw, s.kdf, s.rand)
	if err != nil {
		return err
	}
	return writeFile(s.path, sealed, 0o600)
}

// LoadKeyring reads and decrypts the keyring.
func (s *KeyringFileStore) LoadKeyring(passphrase string) ([]domain.KeyringEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.Wrapf(ErrKeyringNotFound, "%s", s.path)
	}
	pt, err := open(passphrase, b)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(pt)

	var kf keyringFile
	if err := json.Unmarshal(pt, &kf); err != nil {
		return nil, errors.Wrap(err, "decode keyring")
	}
	return kf.Principals, nil
}

// Compile-time assertion that KeyringFileStore implements domain.KeyringStore.
var _ domain.KeyringStore = (*KeyringFileStore)(nil)
