package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"chalresp/internal/util/memzero"
)

// envelopeVersion is the newest sealed-file format this package understands.
const envelopeVersion = 1

// envelopeLabel is bound into every seal as associated data.
var envelopeLabel = []byte("chalresp/keyring")

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// sealed file has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keyring")
)

// envelope is the on-disk JSON structure holding the ciphertext and KDF parameters.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// kdfParams are the scrypt cost parameters.
type kdfParams struct{ N, R, P int }

// defaultKDF returns the scrypt parameters used for new envelopes.
func defaultKDF() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

// seal derives a key from passphrase and encrypts raw into an envelope.
func seal(passphrase string, raw []byte, kdf kdfParams, rnd io.Reader) ([]byte, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	env := envelope{V: envelopeVersion, N: kdf.N, R: kdf.R, P: kdf.P}
	env.Salt = make([]byte, 16)
	env.Nonce = make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rnd, env.Salt); err != nil {
		return nil, errors.Wrap(err, "salt")
	}
	if _, err := io.ReadFull(rnd, env.Nonce); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}

	aead, err := envelopeAEAD(passphrase, env)
	if err != nil {
		return nil, err
	}
	env.Cipher = aead.Seal(nil, env.Nonce, raw, additionalData(env.Salt))
	return json.Marshal(env)
}

// open decrypts an envelope using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "decode keyring envelope")
	}
	if env.V < 1 || env.V > envelopeVersion {
		return nil, errors.Errorf("unsupported keyring version %d", env.V)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrWrongPassphrase
	}

	aead, err := envelopeAEAD(passphrase, env)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, additionalData(env.Salt))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func envelopeAEAD(passphrase string, env envelope) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "derive keyring key")
	}
	defer memzero.Zero(key)
	return chacha20poly1305.NewX(key)
}

// additionalData binds the label and salt to the ciphertext.
func additionalData(salt []byte) []byte {
	ad := make([]byte, 0, len(envelopeLabel)+len(salt))
	return append(append(ad, envelopeLabel...), salt...)
}
