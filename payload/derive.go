package payload

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// IDLength is the length of a derived identifier: a SHA-256 digest in
// lowercase hex.
const IDLength = sha256.Size * 2

// Deriver computes deterministic identifiers from payloads.
//
// Contract:
// - Determinism: equal payloads must derive equal identifiers, within one
//   process and across processes.
// - Totality: Derive never fails for a structurally valid payload.
// - Concurrency: implementations must be safe for concurrent use.
type Deriver interface {
	// Derive returns the identifier for the payload.
	Derive(p Payload) string
}

// SHA256Deriver derives identifiers by hashing a canonical byte encoding
// of the payload. Equality is byte-exact: payloads differing only in
// whitespace or casing derive distinct identifiers.
type SHA256Deriver struct{}

// NewSHA256Deriver creates a new SHA-256 deriver.
func NewSHA256Deriver() *SHA256Deriver {
	return &SHA256Deriver{}
}

// Derive returns the lowercase hex SHA-256 of the canonical encoding.
func (d *SHA256Deriver) Derive(p Payload) string {
	sum := sha256.Sum256(canonicalBytes(p))
	return hex.EncodeToString(sum[:])
}

// canonicalBytes encodes the payload unambiguously: for each list, a
// big-endian uint32 element count followed by each element as a uint32
// length prefix plus raw bytes. Length-prefixing means no separator can
// collide with element content, and only positional order matters.
func canonicalBytes(p Payload) []byte {
	n := 8
	for _, s := range p.List1 {
		n += 4 + len(s)
	}
	for _, s := range p.List2 {
		n += 4 + len(s)
	}

	buf := make([]byte, 0, n)
	buf = appendList(buf, p.List1)
	buf = appendList(buf, p.List2)
	return buf
}

func appendList(buf []byte, list []string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(list)))
	for _, s := range list {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// ValidID reports whether s has the shape of a derived identifier:
// exactly 64 lowercase hex characters.
func ValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Ensure SHA256Deriver implements Deriver
var _ Deriver = (*SHA256Deriver)(nil)
