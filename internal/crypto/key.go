package crypto

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"chalresp/internal/domain"
	"chalresp/internal/util/memzero"
)

// HKDF labels separating the subkeys of one principal key.
var (
	encInfo = []byte("chalresp/v1/enc")
	macInfo = []byte("chalresp/v1/mac")
)

// Argon2id parameters for passphrase-derived principal keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

type subkeys struct {
	enc []byte
	mac []byte
}

func (s subkeys) wipe() {
	memzero.Zero(s.enc)
	memzero.Zero(s.mac)
}

// deriveSubkeys expands a principal key into independent encryption and MAC keys.
func deriveSubkeys(key domain.Key) (subkeys, error) {
	if len(key) != domain.KeySize {
		return subkeys{}, errors.Wrapf(ErrKeySize, "got %d bytes", len(key))
	}
	enc := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, encInfo), enc); err != nil {
		return subkeys{}, err
	}
	mac := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, macInfo), mac); err != nil {
		memzero.Zero(enc)
		return subkeys{}, err
	}
	return subkeys{enc: enc, mac: mac}, nil
}

// DeriveKey stretches a passphrase into a principal key with Argon2id.
// The identity is used as salt so each principal gets a distinct key.
func DeriveKey(passphrase string, id domain.Identity) domain.Key {
	salt := sha256.Sum256([]byte("chalresp/v1/principal/" + id.String()))
	return argon2.IDKey([]byte(passphrase), salt[:16], argonTime, argonMemory, argonThreads, domain.KeySize)
}
