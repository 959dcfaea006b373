package field

import "github.com/holiman/uint256"

// Uint256 is a 256-bit unsigned integer split into a (low, high) pair of
// 16-byte halves, each held as a field element. This is how the VM receives
// every Keccak-style hash and every raw 32-byte quantity: low half first.
type Uint256 struct {
	Low  F
	High F
}

// Uint256FromBytes32 splits a big-endian 32-byte quantity into its low/high
// 16-byte field halves.
func Uint256FromBytes32(b [32]byte) Uint256 {
	var low, high [32]byte
	copy(high[16:], b[:16])
	copy(low[16:], b[16:])
	return Uint256{Low: FromBytes32(low), High: FromBytes32(high)}
}

// Uint256FromBig converts a go-ethereum/holiman big integer into the (low,
// high) split.
func Uint256FromBig(v *uint256.Int) Uint256 {
	b := v.Bytes32()
	return Uint256FromBytes32(b)
}

// Bytes32 reassembles the big-endian 32-byte representation from the low/high
// halves, truncating each half to its low 16 bytes (the high 16 bytes of a
// field element are always zero for a value that legitimately came from a
// 128-bit half).
func (u Uint256) Bytes32() [32]byte {
	var out [32]byte
	hb := u.High.Bytes32()
	lb := u.Low.Bytes32()
	copy(out[:16], hb[16:])
	copy(out[16:], lb[16:])
	return out
}

// Equal reports whether u and v represent the same 256-bit integer.
func (u Uint256) Equal(v Uint256) bool {
	return u.Low.Equal(v.Low) && u.High.Equal(v.High)
}
