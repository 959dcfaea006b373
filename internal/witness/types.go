package witness

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hdp-go/hdp/internal/mmr"
)

// MPTProof is one Merkle-Patricia Trie inclusion proof: the ordered list of
// RLP-encoded trie nodes visited from root to leaf at a given block.
type MPTProof struct {
	BlockNumber uint64
	Nodes       [][]byte
}

// HeaderWitness is one block header's RLP plus its MMR inclusion proof.
type HeaderWitness struct {
	RLP   []byte
	Proof mmr.Proof
}

// HeaderMmrMeta groups header witnesses under the MMR snapshot that
// committed them, mirroring types::HeaderMmrMeta<H>.
type HeaderMmrMeta struct {
	Meta    mmr.Meta
	Headers []HeaderWitness
}

// AccountWitness is an account's proof across one or more blocks.
type AccountWitness struct {
	Address common.Address
	Proofs  []MPTProof
}

// StorageWitness is a storage slot's proof across one or more blocks.
type StorageWitness struct {
	Address common.Address
	Slot    common.Hash
	Proofs  []MPTProof
}

// ReceiptWitness is a transaction receipt's trie inclusion proof, keyed by
// the RLP-encoded transaction index (the receipt trie's key convention).
type ReceiptWitness struct {
	Key   *big.Int
	Proof MPTProof
}

// TransactionWitness is a transaction's trie inclusion proof, keyed the same
// way as ReceiptWitness.
type TransactionWitness struct {
	Key   *big.Int
	Proof MPTProof
}

// Bundle is every witness this run's dry-run pass needed, deduplicated and
// ready for proof-bundle assembly (spec.md §4.F / Component F).
type Bundle struct {
	HeadersWithMMR []HeaderMmrMeta
	Accounts       []AccountWitness
	Storages       []StorageWitness
	Receipts       []ReceiptWitness
	Transactions   []TransactionWitness
}
