package identity

import (
	"fmt"
	"unicode"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/store"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages principal keys using a backing keyring store.
type Service struct {
	store  domain.KeyringStore
	cipher domain.CipherService
}

// New returns a keyring service that generates keys with cipher.
func New(s domain.KeyringStore, cipher domain.CipherService) *Service {
	return &Service{store: s, cipher: cipher}
}

// Init generates a key for each identity and saves the keyring encrypted
// with passphrase, replacing any existing keyring.
func (s *Service) Init(passphrase string, ids []domain.Identity) ([]domain.Principal, error) {
	return s.init(passphrase, ids, func(ps *store.PrincipalStore, id domain.Identity) (domain.Principal, error) {
		return ps.Register(id)
	})
}

// InitFromSecret derives each identity's key from secret with Argon2id
// instead of generating it, so the same secret always yields the same keyring.
func (s *Service) InitFromSecret(passphrase, secret string, ids []domain.Identity) ([]domain.Principal, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret required")
	}
	return s.init(passphrase, ids, func(ps *store.PrincipalStore, id domain.Identity) (domain.Principal, error) {
		return ps.RegisterWithKey(id, crypto.DeriveKey(secret, id))
	})
}

func (s *Service) init(
	passphrase string,
	ids []domain.Identity,
	register func(*store.PrincipalStore, domain.Identity) (domain.Principal, error),
) ([]domain.Principal, error) {
	if !isSecurePassphrase(passphrase) {
		return nil, ErrWeakPassphrase
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no principals given")
	}

	ps := store.NewPrincipalStore(s.cipher)
	for _, id := range ids {
		if _, err := register(ps, id); err != nil {
			return nil, err
		}
	}
	if err := s.store.SaveKeyring(passphrase, ps.Export()); err != nil {
		return nil, err
	}
	return ps.All(), nil
}

// Load decrypts and returns the keyring entries.
func (s *Service) Load(passphrase string) ([]domain.KeyringEntry, error) {
	return s.store.LoadKeyring(passphrase)
}

// Fingerprints returns the public view of every principal in the keyring.
func (s *Service) Fingerprints(passphrase string) ([]domain.Principal, error) {
	entries, err := s.store.LoadKeyring(passphrase)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Principal, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Principal{ID: e.Identity, Fingerprint: crypto.Fingerprint(e.Key)})
	}
	return out, nil
}

// Keys returns the keyring as an identity to key map.
func (s *Service) Keys(passphrase string) (map[domain.Identity]domain.Key, error) {
	entries, err := s.store.LoadKeyring(passphrase)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Identity]domain.Key, len(entries))
	for _, e := range entries {
		out[e.Identity] = domain.Key(e.Key)
	}
	return out, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.KeyringService.
var _ domain.KeyringService = (*Service)(nil)
