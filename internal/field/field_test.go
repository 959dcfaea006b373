package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytes32RoundTrip(t *testing.T) {
	var b [32]byte
	b[31] = 0x2a
	b[0] = 0x01
	f := FromBytes32(b)
	got := f.Bytes32()
	assert.Equal(t, b, got)
}

func TestZeroIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.True(t, FromUint64(0).IsZero())
	assert.False(t, FromUint64(1).IsZero())
}

func TestAddSubRoundTrip(t *testing.T) {
	a := FromUint64(41)
	b := FromUint64(1)
	sum := a.Add(b)
	assert.True(t, sum.Equal(FromUint64(42)))
	assert.True(t, sum.Sub(b).Equal(a))
}

func TestParseHexRoundTrip(t *testing.T) {
	f, err := ParseHex("0x2a")
	require.NoError(t, err)
	assert.True(t, f.Equal(FromUint64(42)))

	f2, err := ParseHex("2a")
	require.NoError(t, err)
	assert.True(t, f.Equal(f2))
}

func TestUint256RoundTrip(t *testing.T) {
	var b [32]byte
	for i := range b {
		b[i] = byte(i)
	}
	u := Uint256FromBytes32(b)
	assert.Equal(t, b, u.Bytes32())
}

func TestBitOrdering(t *testing.T) {
	// 251-bit path, all-ones low bit (bit index pathLen-1 from the top)
	// should read back as 1 when the value is 1.
	f := FromUint64(1)
	const pathLen = 251
	assert.Equal(t, uint(1), f.Bit(pathLen-1, pathLen))
	assert.Equal(t, uint(0), f.Bit(0, pathLen))
}
