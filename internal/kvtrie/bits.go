package kvtrie

import (
	"math/big"

	"github.com/hdp-go/hdp/internal/field"
)

// bitsToField packs an MSB-first slice of 0/1 bytes into a field element.
func bitsToField(bits []uint8) field.F {
	v := new(big.Int)
	for _, b := range bits {
		v.Lsh(v, 1)
		if b != 0 {
			v.SetBit(v, 0, 1)
		}
	}
	return field.FromBigInt(v)
}

// fieldToBits unpacks the low `length` bits of f, MSB first.
func fieldToBits(f field.F, length uint) []uint8 {
	b := f.Bytes32()
	v := new(big.Int).SetBytes(b[:])
	out := make([]uint8, length)
	for i := uint(0); i < length; i++ {
		bitPos := length - 1 - i
		out[i] = uint8(v.Bit(int(bitPos)))
	}
	return out
}

func commonPrefixLen(a, b []uint8) uint {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var i int
	for i = 0; i < n; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return uint(i)
}

func bitsEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// keyPathBits returns key's full 251-bit path, most-significant bit first.
func keyPathBits(key field.F) [Height]uint8 {
	var bits [Height]uint8
	for i := uint(0); i < Height; i++ {
		bits[i] = uint8(key.Bit(i, Height))
	}
	return bits
}
