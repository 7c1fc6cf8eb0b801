package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Sha256Hasher accumulates a content hash while media is streamed to disk.
type Sha256Hasher struct {
	h hash.Hash
	n int64
}

// NewSha256Hasher creates a new Sha256Hasher.
func NewSha256Hasher() *Sha256Hasher {
	return &Sha256Hasher{h: sha256.New()}
}

// Write implements io.Writer.
func (s *Sha256Hasher) Write(p []byte) (int, error) {
	n, err := s.h.Write(p)
	s.n += int64(n)
	return n, err
}

// Sum returns the hex digest of everything written so far.
func (s *Sha256Hasher) Sum() string {
	return hex.EncodeToString(s.h.Sum(nil))
}

// Size returns the number of bytes hashed.
func (s *Sha256Hasher) Size() int64 {
	return s.n
}
