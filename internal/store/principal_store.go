package store

import (
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
)

// PrincipalStore keeps the principals of one session and their keys.
type PrincipalStore struct {
	cipher domain.CipherService

	mu   sync.RWMutex
	keys map[domain.Identity]domain.Key
	pubs map[domain.Identity]domain.Principal
}

// NewPrincipalStore returns an empty store generating keys with cipher.
func NewPrincipalStore(cipher domain.CipherService) *PrincipalStore {
	return &PrincipalStore{
		cipher: cipher,
		keys:   make(map[domain.Identity]domain.Key),
		pubs:   make(map[domain.Identity]domain.Principal),
	}
}

// Register adds id with a freshly generated key.
func (s *PrincipalStore) Register(id domain.Identity) (domain.Principal, error) {
	if err := checkIdentity(id); err != nil {
		return domain.Principal{}, err
	}
	key, err := s.cipher.GenerateKey()
	if err != nil {
		return domain.Principal{}, err
	}
	return s.RegisterWithKey(id, key)
}

// RegisterWithKey adds id with a caller-supplied key.
func (s *PrincipalStore) RegisterWithKey(id domain.Identity, key domain.Key) (domain.Principal, error) {
	if err := checkIdentity(id); err != nil {
		return domain.Principal{}, err
	}
	if len(key) != domain.KeySize {
		return domain.Principal{}, errors.Wrapf(crypto.ErrKeySize, "principal %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[id]; ok {
		return domain.Principal{}, errors.Wrapf(domain.ErrDuplicatePrincipal, "%q", id)
	}
	p := domain.Principal{ID: id, Fingerprint: crypto.Fingerprint(key)}
	s.keys[id] = key.Clone()
	s.pubs[id] = p
	return p, nil
}

// Lookup returns the public view of id.
func (s *PrincipalStore) Lookup(id domain.Identity) (domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pubs[id]
	if !ok {
		return domain.Principal{}, errors.Wrapf(domain.ErrUnknownPrincipal, "%q", id)
	}
	return p, nil
}

// All returns every principal ordered by identity.
func (s *PrincipalStore) All() []domain.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Principal, 0, len(s.pubs))
	for _, p := range s.pubs {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Principal) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Key returns the key of id. The returned slice is shared; callers must not modify it.
func (s *PrincipalStore) Key(id domain.Identity) (domain.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnknownPrincipal, "%q", id)
	}
	return k, nil
}

// Export returns every principal with a copy of its key, ordered by identity.
func (s *PrincipalStore) Export() []domain.KeyringEntry {
	all := s.All()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.KeyringEntry, 0, len(all))
	for _, p := range all {
		out = append(out, domain.KeyringEntry{Identity: p.ID, Key: s.keys[p.ID].Clone()})
	}
	return out
}

func checkIdentity(id domain.Identity) error {
	if strings.TrimSpace(string(id)) == "" {
		return errors.New("empty principal identity")
	}
	return nil
}

// Compile-time assertions that PrincipalStore satisfies the domain contracts.
var (
	_ domain.PrincipalStore = (*PrincipalStore)(nil)
	_ domain.KeyResolver    = (*PrincipalStore)(nil)
)
