// Package fieldhash provides the field-friendly hash function used for KV-trie
// node identity and descent-planner preimages. SPEC_FULL.md §2 resolves the
// spec's ambiguity between "truncated Keccak variant" (§4.A) and
// "Pedersen-family" (§3) node identity by standardizing on gnark-crypto's
// Poseidon2 permutation over bn254/fr, the only field-native hash anywhere in
// the retrieval pack.
package fieldhash

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/hdp-go/hdp/internal/field"
)

// width is the permutation's state size: rate 2 (two absorbed elements per
// squeeze) plus one capacity element, the standard Poseidon2 sponge shape for
// a binary-arity Merkle tree.
const (
	width         = 3
	fullRounds    = 8
	partialRounds = 56
)

// Hasher computes field-native hashes over a variable number of inputs.
type Hasher interface {
	// Hash2 hashes exactly two field elements, the common case for binary
	// trie node identity.
	Hash2(a, b field.F) field.F
	// HashMany hashes an arbitrary-length sequence, used for memorizer
	// fingerprints (poseidon_many in the spec's vocabulary).
	HashMany(xs ...field.F) field.F
}

type poseidon2Hasher struct {
	perm *poseidon2.Permutation
}

// Default is the module-wide field hasher.
var Default Hasher = newPoseidon2Hasher()

func newPoseidon2Hasher() poseidon2Hasher {
	return poseidon2Hasher{perm: poseidon2.NewPermutation(width, fullRounds, partialRounds)}
}

func (h poseidon2Hasher) Hash2(a, b field.F) field.F {
	return h.HashMany(a, b)
}

// HashMany implements a fixed-rate sponge over the Poseidon2 permutation: the
// capacity element starts at zero, each pair of inputs is absorbed additively
// into the rate elements followed by a permutation call, and the first rate
// element after the final permutation is the digest. Odd-length input is
// padded with a zero element.
func (h poseidon2Hasher) HashMany(xs ...field.F) field.F {
	state := make([]fr.Element, width)
	for i := 0; i < len(xs); i += 2 {
		var a, b field.F = xs[i], field.Zero
		if i+1 < len(xs) {
			b = xs[i+1]
		}
		ab := a.Bytes32()
		bb := b.Bytes32()
		var af, bf fr.Element
		af.SetBytes(ab[:])
		bf.SetBytes(bb[:])
		state[0].Add(&state[0], &af)
		state[1].Add(&state[1], &bf)
		h.perm.Permutation(state)
	}
	out := state[0].Bytes()
	return field.FromBytes32(out)
}
