// Package field implements F, the prime-field scalar every value the VM sees
// is expressed in, and Uint256, its (low, high) 128-bit-limb pairing.
package field

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// F is a scalar in the bn254 scalar field, the field-friendly prime used
// throughout the trie, the descent planner, and the hint library.
type F struct {
	e fr.Element
}

// Zero is the additive identity; by convention it also means "absent" for
// trie values.
var Zero = F{}

// FromUint64 lifts a small integer into the field.
func FromUint64(v uint64) F {
	var f F
	f.e.SetUint64(v)
	return f
}

// FromBigInt reduces an arbitrary-precision integer modulo the field order.
func FromBigInt(v *big.Int) F {
	var f F
	f.e.SetBigInt(v)
	return f
}

// FromBytes32 decodes a 32-byte big-endian boundary representation.
func FromBytes32(b [32]byte) F {
	var f F
	f.e.SetBytes(b[:])
	return f
}

// FromBytes decodes an arbitrary-length big-endian byte slice, left-padding
// with zeros as needed; it is the caller's job to ensure no data is dropped
// by field reduction.
func FromBytes(b []byte) F {
	var f F
	f.e.SetBytes(b)
	return f
}

// Bytes32 returns the uniform 32-byte big-endian boundary representation.
func (f F) Bytes32() [32]byte {
	return f.e.Bytes()
}

// IsZero reports whether f is the field's additive identity.
func (f F) IsZero() bool {
	return f.e.IsZero()
}

// Equal reports whether f and g represent the same field element.
func (f F) Equal(g F) bool {
	return f.e.Equal(&g.e)
}

// Add returns f + g.
func (f F) Add(g F) F {
	var r F
	r.e.Add(&f.e, &g.e)
	return r
}

// Sub returns f - g.
func (f F) Sub(g F) F {
	var r F
	r.e.Sub(&f.e, &g.e)
	return r
}

// Cmp orders two field elements by their canonical big-endian representation;
// used only for deterministic ordering (e.g. descent-map keys), never for
// arithmetic comparisons.
func (f F) Cmp(g F) int {
	fb := f.Bytes32()
	gb := g.Bytes32()
	for i := range fb {
		if fb[i] != gb[i] {
			if fb[i] < gb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Bit returns the bit at position i (0 = most significant of the 251-bit
// trie path) of f's big-endian representation, counting from the top of a
// 251-bit path as the trie does.
func (f F) Bit(i, pathLen uint) uint {
	b := f.Bytes32()
	// The path occupies the low pathLen bits of the 256-bit representation.
	bitFromLSB := pathLen - 1 - i
	byteIdx := 31 - bitFromLSB/8
	bitIdx := bitFromLSB % 8
	return uint((b[byteIdx] >> bitIdx) & 1)
}

// String renders f as a 0x-prefixed hex string, matching the teacher's
// common.Hash.Hex() convention.
func (f F) String() string {
	b := f.e.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// ParseHex decodes a 0x-prefixed (or bare) hex string into a field element.
func ParseHex(s string) (F, error) {
	s = trimHexPrefix(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return F{}, fmt.Errorf("parse hex %q: %w", s, err)
	}
	return FromBytes(b), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
