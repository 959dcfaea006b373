// Package bundle assembles the fetcher's collected witnesses and the KV-trie
// service's batch state proofs into the proof bundle the orchestrator holds
// immutably for the sound run (spec.md §4.F: "a bundle is produced
// exclusively by the Fetcher, then held immutably by the Orchestrator for
// the sound run"), and turns that bundle into the fingerprint-keyed records
// the sound-run memorizer is seeded with.
package bundle

import (
	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/kvtrie"
	"github.com/hdp-go/hdp/internal/witness"
)

// TrieStateProof is one entry of a /get_state_proofs batch response, kept
// alongside the EVM/Starknet witnesses so the bundle carries everything the
// sound run's memorizer needs, per spec.md §4.A/§4.F.
type TrieStateProof struct {
	Kind      string // "read" or "write"
	TrieLabel field.F
	Proof     kvtrie.Proof
	PrevValue field.F
	NewValue  field.F
}

// StarknetHeaderWitness and StarknetStorageWitness stand in for the EVM
// witness package's equivalents: Starknet proofs arrive pre-verified from
// starknet_getStorageProof rather than through the EVM Fetcher, so they are
// carried as already-resolved values rather than raw MPT node sequences.
type StarknetHeaderWitness struct {
	ChainID     chainid.ID
	BlockNumber uint64
	NewRoot     field.F
}

type StarknetStorageWitness struct {
	ChainID     chainid.ID
	BlockNumber uint64
	Contract    field.F
	Slot        field.F
	Value       field.F
}

// Bundle is every witness a dry-run pass needed, ready for the sound run's
// memorizer-loading phase (spec.md §4.F step 2/§4.E's "loading phase").
type Bundle struct {
	// ChainID is the single EVM chain this Fetcher dialed (internal/witness's
	// Fetcher carries one rpcclient.EVMClient, so a bundle covers one EVM
	// chain).
	ChainID chainid.ID

	EVM              witness.Bundle
	StarknetHeaders  []StarknetHeaderWitness
	StarknetStorages []StarknetStorageWitness
	TrieProofs       []TrieStateProof
}

// Assemble groups the Fetcher's witness bundle with the Starknet witnesses
// and KV-trie state proofs the orchestrator collected alongside it into the
// final wire-format bundle.
func Assemble(chain chainid.ID, evm witness.Bundle, starknetHeaders []StarknetHeaderWitness, starknetStorages []StarknetStorageWitness, trieProofs []TrieStateProof) Bundle {
	return Bundle{
		ChainID:          chain,
		EVM:              evm,
		StarknetHeaders:  starknetHeaders,
		StarknetStorages: starknetStorages,
		TrieProofs:       trieProofs,
	}
}
