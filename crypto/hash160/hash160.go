// Package hash160 computes script hashes, ripemd160(sha256(data)).
package hash160

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160"
)

// Size is the size of a Hash in bytes.
const Size = ripemd160.Size

// Hash is a Hash160 digest in its natural byte order.
type Hash [Size]byte

// Sum returns the Hash160 of data.
func Sum(data []byte) Hash {
	inner := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(inner[:])
	var sum Hash
	h.Sum(sum[:0])
	return sum
}

// StringLE renders h byte-reversed with a 0x prefix, the form
// in which script hashes are usually displayed.
func (h Hash) StringLE() string {
	var rev Hash
	for i := range h {
		rev[Size-1-i] = h[i]
	}
	return "0x" + hex.EncodeToString(rev[:])
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
