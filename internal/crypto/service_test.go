package crypto_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
)

// newService returns a seeded service for suite.
func newService(t *testing.T, suite crypto.Suite) *crypto.Service {
	t.Helper()
	svc, err := crypto.New(suite, crypto.NewSource(7))
	require.NoError(t, err)
	return svc
}

func TestService_RoundTrip(t *testing.T) {
	for _, suite := range []crypto.Suite{crypto.SuiteAESCBCHMAC, crypto.SuiteChaCha20Poly1305} {
		t.Run(string(suite), func(t *testing.T) {
			svc := newService(t, suite)
			key, err := svc.GenerateKey()
			require.NoError(t, err)
			require.Len(t, key, domain.KeySize)

			for _, size := range []int{0, 1, 15, 16, 17, 32} {
				msg := bytes.Repeat([]byte{0xA5}, size)
				ct, err := svc.Encrypt(key, msg)
				require.NoError(t, err)
				pt, err := svc.Decrypt(key, ct)
				require.NoError(t, err)
				assert.Equal(t, msg, append([]byte{}, pt...), "size %d", size)
			}
		})
	}
}

func TestService_Encrypt_IsRandomised(t *testing.T) {
	svc := newService(t, crypto.SuiteAESCBCHMAC)
	key, err := svc.GenerateKey()
	require.NoError(t, err)

	a, err := svc.Encrypt(key, []byte("nonce"))
	require.NoError(t, err)
	b, err := svc.Encrypt(key, []byte("nonce"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestService_Decrypt_RejectsTamperAndWrongKey(t *testing.T) {
	for _, suite := range []crypto.Suite{crypto.SuiteAESCBCHMAC, crypto.SuiteChaCha20Poly1305} {
		t.Run(string(suite), func(t *testing.T) {
			svc := newService(t, suite)
			key, err := svc.GenerateKey()
			require.NoError(t, err)
			other, err := svc.GenerateKey()
			require.NoError(t, err)

			ct, err := svc.Encrypt(key, []byte("0123456789abcdef"))
			require.NoError(t, err)

			for i := range ct {
				bad := append([]byte(nil), ct...)
				bad[i] ^= 0x01
				pt, err := svc.Decrypt(key, bad)
				require.Truef(t, errors.Is(err, crypto.ErrDecrypt), "byte %d: %v", i, err)
				require.Nil(t, pt)
			}

			_, err = svc.Decrypt(other, ct)
			assert.ErrorIs(t, err, crypto.ErrDecrypt)

			_, err = svc.Decrypt(key, ct[:5])
			assert.ErrorIs(t, err, crypto.ErrDecrypt)
		})
	}
}

func TestService_BadKeySize(t *testing.T) {
	svc := newService(t, crypto.SuiteAESCBCHMAC)
	_, err := svc.Encrypt(domain.Key{1, 2, 3}, []byte("x"))
	assert.ErrorIs(t, err, crypto.ErrKeySize)
}

func TestService_UnknownSuite(t *testing.T) {
	_, err := crypto.New("rot13", nil)
	assert.ErrorIs(t, err, crypto.ErrUnknownSuite)
}

func TestService_AuthenticateVerify(t *testing.T) {
	svc := newService(t, crypto.SuiteAESCBCHMAC)
	key, err := svc.GenerateKey()
	require.NoError(t, err)
	other, err := svc.GenerateKey()
	require.NoError(t, err)

	tag, err := svc.Authenticate(key, []byte("challenge"))
	require.NoError(t, err)
	assert.True(t, svc.Verify(key, []byte("challenge"), tag))
	assert.False(t, svc.Verify(key, []byte("challengE"), tag))
	assert.False(t, svc.Verify(other, []byte("challenge"), tag))
	assert.False(t, svc.Verify(domain.Key{1}, []byte("challenge"), tag))
}

func TestSource_Deterministic(t *testing.T) {
	a, b := crypto.NewSource(42), crypto.NewSource(42)
	for range 4 {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
	ca, cb := a.Child(), b.Child()
	assert.Equal(t, ca.Uint64(), cb.Uint64())
	assert.NotEqual(t, crypto.NewSource(42).Uint64(), crypto.NewSource(43).Uint64())
}

func TestWithRand_ReproducesNonces(t *testing.T) {
	base, err := crypto.New(crypto.SuiteAESCBCHMAC, nil)
	require.NoError(t, err)

	n1, err := base.WithRand(crypto.NewSource(1)).GenerateNonce()
	require.NoError(t, err)
	n2, err := base.WithRand(crypto.NewSource(1)).GenerateNonce()
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
	assert.Len(t, n1, domain.NonceSize)
}

func TestDeriveKey_PerIdentity(t *testing.T) {
	a := crypto.DeriveKey("Correct-Horse-9", "alice")
	b := crypto.DeriveKey("Correct-Horse-9", "bob")
	require.Len(t, a, domain.KeySize)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, crypto.DeriveKey("Correct-Horse-9", "alice"))
}

func TestFingerprint_ShortAndStable(t *testing.T) {
	key := domain.Key(bytes.Repeat([]byte{9}, domain.KeySize))
	fp := crypto.Fingerprint(key)
	assert.Len(t, fp.String(), 20)
	assert.Equal(t, fp, crypto.Fingerprint(key.Clone()))
	assert.Equal(t, "Key(redacted)", key.String())
}
