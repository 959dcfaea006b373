// Package mmr models Merkle Mountain Range metadata and inclusion proofs, the
// commitment scheme the indexer uses to anchor a header sequence.
package mmr

import (
	"fmt"

	"github.com/hdp-go/hdp/internal/chainid"
)

// Hasher is the hashing function a given MMR was built with. The indexer's
// request contract (spec.md §6) enumerates three values, but the committed
// metadata (spec.md §3) only ever carries the first two: Pedersen-hashed MMRs
// are never the verifier's concern, only the request-shaping one (see
// SPEC_FULL.md §3).
type Hasher uint8

const (
	Keccak Hasher = iota
	Poseidon
	Pedersen
)

// ParseHasher decodes the indexer's `hashing_function` string.
func ParseHasher(s string) (Hasher, error) {
	switch s {
	case "keccak":
		return Keccak, nil
	case "poseidon":
		return Poseidon, nil
	case "pedersen":
		return Pedersen, nil
	default:
		return 0, fmt.Errorf("mmr: unknown hasher %q", s)
	}
}

func (h Hasher) String() string {
	switch h {
	case Keccak:
		return "keccak"
	case Poseidon:
		return "poseidon"
	case Pedersen:
		return "pedersen"
	default:
		return "unknown"
	}
}

// Meta is the committed metadata of one Merkle Mountain Range, spec.md §3.
// Pedersen is rejected at decode time (see DecodeMeta) since it never appears
// in committed metadata, only in indexer requests.
type Meta struct {
	ChainID chainid.ID
	ID      uint64
	Size    uint64
	Root    [32]byte
	Peaks   [][32]byte
	Hasher  Hasher
}

// Key is the canonical grouping key the fetcher groups headers by:
// (chain, id, size, root, peaks, hasher). Peaks are folded into a single
// [32]byte PeaksHash so Key can be a map key.
type Key struct {
	ChainID   chainid.ID
	ID        uint64
	Size      uint64
	Root      [32]byte
	PeaksHash [32]byte
	Hasher    Hasher
}

// DecodeMeta validates a committed MMR meta, rejecting a Pedersen hasher
// since §3's committed-metadata enum only admits {Keccak, Poseidon}.
func DecodeMeta(chain chainid.ID, id, size uint64, root [32]byte, peaks [][32]byte, hasher Hasher) (Meta, error) {
	if hasher == Pedersen {
		return Meta{}, fmt.Errorf("mmr: pedersen hasher not valid in committed metadata")
	}
	return Meta{ChainID: chain, ID: id, Size: size, Root: root, Peaks: peaks, Hasher: hasher}, nil
}

// Key returns m's grouping key.
func (m Meta) Key() Key {
	var peaksDigest [32]byte
	for i, p := range m.Peaks {
		for j, b := range p {
			peaksDigest[(i*32+j)%32] ^= b
		}
	}
	return Key{ChainID: m.ChainID, ID: m.ID, Size: m.Size, Root: m.Root, PeaksHash: peaksDigest, Hasher: m.Hasher}
}

// Equal reports whether two metas describe the same MMR commitment.
func (m Meta) Equal(o Meta) bool {
	return m.Key() == o.Key()
}

// Proof is the inclusion proof for one leaf (header) in an MMR, spec.md §3.
type Proof struct {
	LeafIdx  uint64 // 1-based position in the MMR leaf sequence.
	MMRPath  [][32]byte
}
