// Package syscallkey is the call-key vocabulary shared by the dry-run and
// sound-run syscall handler relays (internal/dryrun, internal/sound): both
// passes must derive byte-for-byte the same key from the same calldata
// (spec.md §4.E: "derives the same key as the dry-run handler, identical
// layout, identical canonicalization"), so the type lives in one place
// instead of being redefined per package.
package syscallkey

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/fieldhash"
	"github.com/hdp-go/hdp/internal/witness"
)

// Kind discriminates which of Key's family-specific fields is populated.
type Kind uint8

const (
	KindHeader Kind = iota
	KindAccount
	KindStorage
	KindTransaction
	KindReceipt
	KindStarknetHeader
	KindStarknetStorage
	KindTrieLabel
	KindTrieEntry
)

// TrieEntryKey identifies one (label, key) pair within the KV-trie auxiliary
// group, distinct from TrieLabel (which only identifies the labeled trie
// itself, not a specific entry in it).
type TrieEntryKey struct {
	Label field.F
	Key   field.F
}

// StarknetHeaderKey identifies a Starknet block header, keyed the same way
// as the EVM HeaderKey but kept distinct since Starknet headers are
// field-packed rather than RLP (spec.md §4.D: "Starknet variants are
// Header=0, Storage=1").
type StarknetHeaderKey struct {
	ChainID     chainid.ID
	BlockNumber uint64
}

// StarknetStorageKey identifies a Starknet contract storage slot.
type StarknetStorageKey struct {
	ChainID     chainid.ID
	BlockNumber uint64
	Contract    field.F
	Slot        field.F
}

// Key is the tagged union of every call-family key shape spec.md §4.D
// enumerates. It embeds the witness package's fetch keys directly for the
// EVM families so the fetcher and the syscall handlers never maintain two
// definitions of "what identifies an account at a block".
type Key struct {
	Kind Kind

	Header      witness.HeaderKey
	Account     witness.AccountKey
	Storage     witness.StorageKey
	Transaction witness.TransactionKey
	Receipt     witness.ReceiptKey

	StarknetHeader  StarknetHeaderKey
	StarknetStorage StarknetStorageKey

	TrieLabel field.F
	TrieEntry TrieEntryKey
}

func Header(k witness.HeaderKey) Key           { return Key{Kind: KindHeader, Header: k} }
func Account(k witness.AccountKey) Key         { return Key{Kind: KindAccount, Account: k} }
func Storage(k witness.StorageKey) Key         { return Key{Kind: KindStorage, Storage: k} }
func Transaction(k witness.TransactionKey) Key { return Key{Kind: KindTransaction, Transaction: k} }
func Receipt(k witness.ReceiptKey) Key         { return Key{Kind: KindReceipt, Receipt: k} }
func Starknet(k StarknetHeaderKey) Key         { return Key{Kind: KindStarknetHeader, StarknetHeader: k} }
func StarknetStor(k StarknetStorageKey) Key    { return Key{Kind: KindStarknetStorage, StarknetStorage: k} }
func TrieLabel(label field.F) Key              { return Key{Kind: KindTrieLabel, TrieLabel: label} }
func TrieEntry(k TrieEntryKey) Key              { return Key{Kind: KindTrieEntry, TrieEntry: k} }

// Fingerprint computes the memorizer dictionary key spec.md §4.E describes:
// poseidon_many([family_tag, inputs...]), where family_tag is Kind and
// inputs is the key's canonical field-element encoding. Both passes must
// agree on this encoding bit for bit since the sound run looks up exactly
// the fingerprint the dry run would have produced for the same call.
func (k Key) Fingerprint() field.F {
	tag := field.FromUint64(uint64(k.Kind))
	switch k.Kind {
	case KindHeader:
		return fieldhash.Default.HashMany(tag, field.FromUint64(uint64(k.Header.ChainID)), field.FromUint64(k.Header.BlockNumber))
	case KindAccount:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.Account.ChainID)),
			field.FromUint64(k.Account.BlockNumber),
			addressField(k.Account.Address))
	case KindStorage:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.Storage.ChainID)),
			field.FromUint64(k.Storage.BlockNumber),
			addressField(k.Storage.Address),
			hashField(k.Storage.Slot))
	case KindTransaction:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.Transaction.ChainID)),
			field.FromUint64(k.Transaction.BlockNumber),
			field.FromUint64(k.Transaction.TransactionIndex))
	case KindReceipt:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.Receipt.ChainID)),
			field.FromUint64(k.Receipt.BlockNumber),
			field.FromUint64(k.Receipt.TransactionIndex))
	case KindStarknetHeader:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.StarknetHeader.ChainID)),
			field.FromUint64(k.StarknetHeader.BlockNumber))
	case KindStarknetStorage:
		return fieldhash.Default.HashMany(tag,
			field.FromUint64(uint64(k.StarknetStorage.ChainID)),
			field.FromUint64(k.StarknetStorage.BlockNumber),
			k.StarknetStorage.Contract,
			k.StarknetStorage.Slot)
	case KindTrieLabel:
		return fieldhash.Default.HashMany(tag, k.TrieLabel)
	case KindTrieEntry:
		return fieldhash.Default.HashMany(tag, k.TrieEntry.Label, k.TrieEntry.Key)
	default:
		return field.Zero
	}
}

func addressField(a common.Address) field.F {
	var b [32]byte
	copy(b[12:], a[:])
	return field.FromBytes32(b)
}

func hashField(h common.Hash) field.F {
	return field.FromBytes32(h)
}
