// Package hints holds the small, pure conventions the VM-side hint library
// and the host-side witness fetcher must agree on bit-for-bit: byte chunking
// of RLP payloads and 256-bit value splitting into field-element halves
// (spec.md §2's resolved Open Questions 1-3).
package hints

import (
	"encoding/binary"
	"fmt"

	"github.com/hdp-go/hdp/internal/field"
)

// ChunkSize is the little-endian byte-chunk width RLP/MPT byte payloads are
// split into, grounded on header_verifier.rs's hint_set_rlp: `rlp.chunks(8)`
// with each chunk's bytes reversed before being read as a field element.
const ChunkSize = 8

// ChunkBytesLE splits data into ChunkSize-byte groups, each read as a
// little-endian field element (equivalent to reversing the chunk's bytes and
// reading big-endian, per hint_set_rlp). The final chunk is zero-padded on
// the high end if data's length isn't a multiple of ChunkSize.
func ChunkBytesLE(data []byte) []field.F {
	n := (len(data) + ChunkSize - 1) / ChunkSize
	out := make([]field.F, n)
	for i := 0; i < n; i++ {
		start := i * ChunkSize
		end := start + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		var buf [ChunkSize]byte
		copy(buf[:], data[start:end])
		reversed := reverseBytes(buf[:])
		out[i] = field.FromBytes(reversed)
	}
	return out
}

// UnchunkBytesLE is ChunkBytesLE's inverse: given the chunked field elements
// and the original byte length, it reconstructs the byte payload.
func UnchunkBytesLE(chunks []field.F, length int) ([]byte, error) {
	need := (length + ChunkSize - 1) / ChunkSize
	if len(chunks) != need {
		return nil, fmt.Errorf("hints: expected %d chunks for %d bytes, got %d", need, length, len(chunks))
	}
	out := make([]byte, 0, length)
	for i, c := range chunks {
		b := c.Bytes32()
		chunkBytes := reverseBytes(b[32-ChunkSize:])
		remain := length - len(out)
		if remain > ChunkSize {
			remain = ChunkSize
		}
		_ = i
		out = append(out, chunkBytes[:remain]...)
	}
	return out, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// SplitUint256 splits a 256-bit big-endian value into (high, low) field
// halves, the 16/16-byte convention used for hashes and other 256-bit values
// that are not RLP byte payloads (Open Question 1).
func SplitUint256(value [32]byte) (high, low field.F) {
	var h, l [16]byte
	copy(h[:], value[:16])
	copy(l[:], value[16:])
	return field.FromBytes(h[:]), field.FromBytes(l[:])
}

// JoinUint256 is SplitUint256's inverse.
func JoinUint256(high, low field.F) [32]byte {
	var out [32]byte
	hb := high.Bytes32()
	lb := low.Bytes32()
	copy(out[:16], hb[16:])
	copy(out[16:], lb[16:])
	return out
}

// StorageSlotKey builds the 32-byte storage-slot trie key from its
// (high, low) field halves, truncating each half's low 16 bytes before
// concatenation — the convention keys::storage::Key's CairoKey conversion
// uses (`storage_slot_high.to_bytes_be()[16..]` concatenated with the low
// half's own low 16 bytes).
func StorageSlotKey(high, low field.F) [32]byte {
	return JoinUint256(high, low)
}

// PutUint64LE is a small helper matching the teacher's use of
// encoding/binary for fixed-width integer encoding elsewhere in the ambient
// stack.
func PutUint64LE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}
