// Package witness fetches and assembles the header/account/storage/receipt/
// transaction proof witnesses a dry-run discovers it needs, deduplicated and
// bounded-fan-out fetched per spec.md §4.C. Grounded on
// original_source/crates/fetcher/src/proof_keys.rs and src/lib.rs.
package witness

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/hdp-go/hdp/internal/chainid"
)

// HeaderKey identifies a single block header proof request.
type HeaderKey struct {
	ChainID     chainid.ID
	BlockNumber uint64
}

// AccountKey identifies an account proof request.
type AccountKey struct {
	ChainID     chainid.ID
	BlockNumber uint64
	Address     common.Address
}

// Header projects an AccountKey down to the HeaderKey it also requires,
// mirroring proof_keys.rs's `key.to_owned().into()`.
func (k AccountKey) Header() HeaderKey {
	return HeaderKey{ChainID: k.ChainID, BlockNumber: k.BlockNumber}
}

// StorageKey identifies a storage-slot proof request.
type StorageKey struct {
	ChainID     chainid.ID
	BlockNumber uint64
	Address     common.Address
	Slot        common.Hash
}

// Header projects a StorageKey down to its HeaderKey.
func (k StorageKey) Header() HeaderKey {
	return HeaderKey{ChainID: k.ChainID, BlockNumber: k.BlockNumber}
}

// Account projects a StorageKey down to the AccountKey it also requires.
func (k StorageKey) Account() AccountKey {
	return AccountKey{ChainID: k.ChainID, BlockNumber: k.BlockNumber, Address: k.Address}
}

// ReceiptKey identifies a transaction receipt proof request.
type ReceiptKey struct {
	ChainID          chainid.ID
	BlockNumber      uint64
	TransactionIndex uint64
}

// Header projects a ReceiptKey down to its HeaderKey.
func (k ReceiptKey) Header() HeaderKey {
	return HeaderKey{ChainID: k.ChainID, BlockNumber: k.BlockNumber}
}

// TransactionKey identifies a transaction proof request.
type TransactionKey struct {
	ChainID          chainid.ID
	BlockNumber      uint64
	TransactionIndex uint64
}

// Header projects a TransactionKey down to its HeaderKey.
func (k TransactionKey) Header() HeaderKey {
	return HeaderKey{ChainID: k.ChainID, BlockNumber: k.BlockNumber}
}
