package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/store"
)

// newPrincipals returns a store drawing keys from a fixed seed.
func newPrincipals(t *testing.T) *store.PrincipalStore {
	t.Helper()
	svc, err := crypto.New(crypto.SuiteAESCBCHMAC, crypto.NewSource(1))
	require.NoError(t, err)
	return store.NewPrincipalStore(svc)
}

// fixedKey returns a key filled with b.
func fixedKey(b byte) domain.Key { return domain.Key(bytes.Repeat([]byte{b}, domain.KeySize)) }

func TestPrincipalStore_RegisterLookup(t *testing.T) {
	s := newPrincipals(t)

	p, err := s.Register("bob")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("bob"), p.ID)
	assert.NotEmpty(t, p.Fingerprint)

	got, err := s.Lookup("bob")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	key, err := s.Key("bob")
	require.NoError(t, err)
	assert.Len(t, key, domain.KeySize)
	assert.Equal(t, crypto.Fingerprint(key), p.Fingerprint)
}

func TestPrincipalStore_Errors(t *testing.T) {
	s := newPrincipals(t)

	_, err := s.Lookup("nobody")
	assert.ErrorIs(t, err, domain.ErrUnknownPrincipal)
	_, err = s.Key("nobody")
	assert.ErrorIs(t, err, domain.ErrUnknownPrincipal)

	_, err = s.Register("alice")
	require.NoError(t, err)
	_, err = s.Register("alice")
	assert.ErrorIs(t, err, domain.ErrDuplicatePrincipal)

	_, err = s.Register("  ")
	assert.Error(t, err)
	_, err = s.RegisterWithKey("carol", domain.Key{1, 2})
	assert.ErrorIs(t, err, crypto.ErrKeySize)
}

func TestPrincipalStore_AllSortedAndKeysCopied(t *testing.T) {
	s := newPrincipals(t)
	key := fixedKey(3)
	for _, id := range []domain.Identity{"carol", "alice", "bob"} {
		_, err := s.RegisterWithKey(id, key)
		require.NoError(t, err)
	}
	key[0] = 0xFF

	var ids []domain.Identity
	for _, p := range s.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []domain.Identity{"alice", "bob", "carol"}, ids)

	stored, err := s.Key("alice")
	require.NoError(t, err)
	assert.Equal(t, byte(3), stored[0])

	exported := s.Export()
	require.Len(t, exported, 3)
	assert.Equal(t, domain.Identity("alice"), exported[0].Identity)
}

func TestNonceStore_SeenMark(t *testing.T) {
	s := store.NewNonceStore()
	n := domain.Nonce{1, 2, 3}
	assert.False(t, s.Seen(n))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mark(n, nil)
		}()
	}
	wg.Wait()

	assert.True(t, s.Seen(n))
	assert.False(t, s.Seen(nil))
	assert.Equal(t, 1, s.Len())
}

// newKeyring returns a keyring store with cheap scrypt parameters.
func newKeyring(t *testing.T) *store.KeyringFileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys", "keyring.json.enc")
	return store.NewKeyringFileStore(path, store.WithScryptParams(1<<10, 8, 1))
}

func TestKeyring_SaveLoad_OK(t *testing.T) {
	ks := newKeyring(t)
	entries := []domain.KeyringEntry{
		{Identity: "alice", Key: fixedKey(1)},
		{Identity: "bob", Key: fixedKey(2)},
	}
	require.NoError(t, ks.SaveKeyring("Str0ng-Passphrase!", entries))

	info, err := os.Stat(ks.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(ks.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice")

	got, err := ks.LoadKeyring("Str0ng-Passphrase!")
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestKeyring_WrongPassphrase_Fails(t *testing.T) {
	ks := newKeyring(t)
	require.NoError(t, ks.SaveKeyring("correct", []domain.KeyringEntry{{Identity: "a", Key: fixedKey(1)}}))

	_, err := ks.LoadKeyring("wrong")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestKeyring_Missing(t *testing.T) {
	ks := newKeyring(t)
	_, err := ks.LoadKeyring("whatever")
	assert.ErrorIs(t, err, store.ErrKeyringNotFound)
}
