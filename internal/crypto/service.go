package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"

	"chalresp/internal/domain"
	"chalresp/internal/util/memzero"
)

// Suite names an authenticated encryption construction.
type Suite string

const (
	// SuiteAESCBCHMAC is AES-256-CBC with PKCS#7 padding and a random IV,
	// sealed encrypt-then-MAC with HMAC-SHA256.
	SuiteAESCBCHMAC Suite = "aes-cbc-hmac"
	// SuiteChaCha20Poly1305 is the ChaCha20-Poly1305 AEAD with a random nonce.
	SuiteChaCha20Poly1305 Suite = "chacha20poly1305"
)

var (
	// ErrDecrypt is returned for any ciphertext that does not authenticate.
	ErrDecrypt = errors.New("decryption failed")
	// ErrKeySize is returned when a key is not domain.KeySize bytes.
	ErrKeySize = errors.New("invalid key size")
	// ErrUnknownSuite is returned for an unrecognised suite name.
	ErrUnknownSuite = errors.New("unknown cipher suite")
)

// Service implements domain.CipherService.
type Service struct {
	suite Suite
	rand  io.Reader
}

// New returns a Service for suite drawing randomness from r.
// A nil r selects crypto/rand.
func New(suite Suite, r io.Reader) (*Service, error) {
	if suite == "" {
		suite = SuiteAESCBCHMAC
	}
	switch suite {
	case SuiteAESCBCHMAC, SuiteChaCha20Poly1305:
	default:
		return nil, errors.Wrapf(ErrUnknownSuite, "%q", suite)
	}
	if r == nil {
		r = rand.Reader
	}
	return &Service{suite: suite, rand: r}, nil
}

// WithRand returns a copy of s bound to r.
func (s *Service) WithRand(r io.Reader) domain.CipherService {
	return &Service{suite: s.suite, rand: r}
}

// GenerateKey returns a fresh principal key.
func (s *Service) GenerateKey() (domain.Key, error) {
	k := make(domain.Key, domain.KeySize)
	if _, err := io.ReadFull(s.rand, k); err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return k, nil
}

// GenerateNonce returns a fresh challenge nonce.
func (s *Service) GenerateNonce() (domain.Nonce, error) {
	n := make(domain.Nonce, domain.NonceSize)
	if _, err := io.ReadFull(s.rand, n); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}
	return n, nil
}

// Encrypt seals plaintext under key.
func (s *Service) Encrypt(key domain.Key, plaintext []byte) ([]byte, error) {
	sub, err := deriveSubkeys(key)
	if err != nil {
		return nil, err
	}
	defer sub.wipe()

	if s.suite == SuiteChaCha20Poly1305 {
		aead, err := chacha20poly1305.New(sub.enc)
		if err != nil {
			return nil, err
		}
		nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
		if _, err := io.ReadFull(s.rand, nonce); err != nil {
			return nil, errors.Wrap(err, "generate nonce")
		}
		return aead.Seal(nonce, nonce, plaintext, nil), nil
	}

	block, err := aes.NewCipher(sub.enc)
	if err != nil {
		return nil, err
	}
	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded), aes.BlockSize+len(padded)+sha256.Size)
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(s.rand, iv); err != nil {
		return nil, errors.Wrap(err, "generate iv")
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	mac := hmac.New(sha256.New, sub.mac)
	mac.Write(out)
	return mac.Sum(out), nil
}

// Decrypt opens ciphertext produced by Encrypt under the same key.
// Every failure maps to ErrDecrypt and no plaintext is returned.
func (s *Service) Decrypt(key domain.Key, ciphertext []byte) ([]byte, error) {
	sub, err := deriveSubkeys(key)
	if err != nil {
		return nil, err
	}
	defer sub.wipe()

	if s.suite == SuiteChaCha20Poly1305 {
		aead, err := chacha20poly1305.New(sub.enc)
		if err != nil {
			return nil, err
		}
		if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
			return nil, ErrDecrypt
		}
		pt, err := aead.Open(nil, ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():], nil)
		if err != nil {
			return nil, ErrDecrypt
		}
		return pt, nil
	}

	// iv || at least one block || tag
	if len(ciphertext) < 2*aes.BlockSize+sha256.Size {
		return nil, ErrDecrypt
	}
	body, tag := ciphertext[:len(ciphertext)-sha256.Size], ciphertext[len(ciphertext)-sha256.Size:]
	mac := hmac.New(sha256.New, sub.mac)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, ErrDecrypt
	}
	if (len(body)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(sub.enc)
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(body)-aes.BlockSize)
	cipher.NewCBCDecrypter(block, body[:aes.BlockSize]).CryptBlocks(pt, body[aes.BlockSize:])
	out, ok := unpad(pt, aes.BlockSize)
	if !ok {
		memzero.Zero(pt)
		return nil, ErrDecrypt
	}
	return out, nil
}

// Authenticate returns the HMAC-SHA256 tag of message under key.
func (s *Service) Authenticate(key domain.Key, message []byte) ([]byte, error) {
	sub, err := deriveSubkeys(key)
	if err != nil {
		return nil, err
	}
	defer sub.wipe()

	mac := hmac.New(sha256.New, sub.mac)
	mac.Write(message)
	return mac.Sum(nil), nil
}

// Verify reports whether tag authenticates message under key.
func (s *Service) Verify(key domain.Key, message, tag []byte) bool {
	want, err := s.Authenticate(key, message)
	if err != nil {
		return false
	}
	return hmac.Equal(want, tag)
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips PKCS#7 padding.
func unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}

// Compile-time assertion that Service implements domain.CipherService.
var _ domain.CipherService = (*Service)(nil)
