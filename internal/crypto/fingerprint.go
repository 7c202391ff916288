package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"chalresp/internal/domain"
)

// Fingerprint returns a short hex check value for a secret key.
//
// It hashes a domain-separated copy of the key with SHA-256 and truncates
// to 10 bytes (20 hex chars), so the key itself cannot be recovered.
func Fingerprint(key domain.Key) domain.Fingerprint {
	h := sha256.New()
	h.Write([]byte("chalresp/v1/fingerprint"))
	h.Write(key)
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil)[:10]))
}

// Digest returns a truncated SHA-256 hex digest of public data.
func Digest(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
