package crypto

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// Source is a deterministic random stream: the ChaCha20 keystream under a
// key derived from a seed. It satisfies io.Reader and math/rand/v2.Source.
//
// A Source is NOT safe for concurrent use.
type Source struct {
	stream *chacha20.Cipher
}

// NewSource returns the stream for an integer seed.
func NewSource(seed uint64) *Source {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seed)
	return NewSourceFromBytes(b[:])
}

// NewSourceFromBytes returns the stream for an arbitrary seed.
func NewSourceFromBytes(seed []byte) *Source {
	h := sha256.New()
	h.Write([]byte("chalresp/v1/drbg"))
	h.Write(seed)
	key := h.Sum(nil)
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce[:])
	if err != nil {
		// key and nonce sizes are fixed above
		panic(err)
	}
	return &Source{stream: stream}
}

// Read fills p with keystream bytes. It never fails.
func (s *Source) Read(p []byte) (int, error) {
	clear(p)
	s.stream.XORKeyStream(p, p)
	return len(p), nil
}

// Uint64 returns the next 8 keystream bytes as an integer.
func (s *Source) Uint64() uint64 {
	var b [8]byte
	_, _ = s.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Child derives an independent stream seeded from the next 32 bytes of s.
func (s *Source) Child() *Source {
	var seed [32]byte
	_, _ = s.Read(seed[:])
	return NewSourceFromBytes(seed[:])
}
