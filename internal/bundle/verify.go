package bundle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/kvtrie"
	"github.com/hdp-go/hdp/internal/selectors"
	"github.com/hdp-go/hdp/internal/sound/families"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/witness"
)

// Record pairs a memorizer fingerprint key with the value the sound run's
// loading phase should bind it to (spec.md §4.E: "verifies the witness,
// writes the verified record... inserts the fingerprint -> pointer binding").
type Record struct {
	Key   syscallkey.Key
	Value families.Record
}

type headerID struct {
	ChainID     chainid.ID
	BlockNumber uint64
}

type decodedAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     common.Hash
	CodeHash []byte
}

// rlpAccount mirrors the standard EVM account RLP encoding
// (nonce, balance, storageRoot, codeHash), decoded independently of
// go-ethereum's internal state-account type so the field order is pinned
// here regardless of library version.
type rlpAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     common.Hash
	CodeHash []byte
}

// Verify replays every MPT and KV-trie witness in the bundle against its
// claimed root (spec.md §3 invariants: "the MPT witness's first node hashes
// to the header's ... root; its last node contains the claimed value" /
// "for KV-trie proofs: replaying the path with the claimed leaf reconstructs
// the root"), and returns the memorizer records the sound run's loading
// phase binds. MMR inclusion replay is not redone here: that hash-chain
// replay is the proven computation itself (see original_source's
// verifiers/evm/mmr_verifier.rs, a hint that exposes already-trusted MMR
// meta fields to the VM rather than a host-side verifier), which is outside
// this module's external-VM boundary (internal/vm's Non-goal).
func (b Bundle) Verify() ([]Record, error) {
	headers, records, err := b.verifyHeaders()
	if err != nil {
		return nil, err
	}

	accounts, accRecords, err := b.verifyAccounts(headers)
	if err != nil {
		return nil, err
	}
	records = append(records, accRecords...)

	storRecords, err := b.verifyStorages(accounts)
	if err != nil {
		return nil, err
	}
	records = append(records, storRecords...)

	receiptRecords, err := b.verifyReceipts(headers)
	if err != nil {
		return nil, err
	}
	records = append(records, receiptRecords...)

	txRecords, err := b.verifyTransactions(headers)
	if err != nil {
		return nil, err
	}
	records = append(records, txRecords...)

	for _, sh := range b.StarknetHeaders {
		key := syscallkey.Starknet(syscallkey.StarknetHeaderKey{ChainID: sh.ChainID, BlockNumber: sh.BlockNumber})
		records = append(records, Record{Key: key, Value: families.Record{Values: []field.F{sh.NewRoot}}})
	}
	for _, ss := range b.StarknetStorages {
		key := syscallkey.StarknetStor(syscallkey.StarknetStorageKey{ChainID: ss.ChainID, BlockNumber: ss.BlockNumber, Contract: ss.Contract, Slot: ss.Slot})
		records = append(records, Record{Key: key, Value: families.Record{Values: []field.F{ss.Value}}})
	}

	trieRecords, err := b.verifyTrieProofs()
	if err != nil {
		return nil, err
	}
	records = append(records, trieRecords...)

	return records, nil
}

func (b Bundle) verifyHeaders() (map[headerID]*types.Header, []Record, error) {
	headers := make(map[headerID]*types.Header)
	var records []Record

	for _, group := range b.EVM.HeadersWithMMR {
		for _, hw := range group.Headers {
			var h types.Header
			if err := rlp.DecodeBytes(hw.RLP, &h); err != nil {
				return nil, nil, fmt.Errorf("%w: bundle: decode header rlp: %v", herr.Witness, err)
			}
			id := headerID{ChainID: group.Meta.ChainID, BlockNumber: h.Number.Uint64()}
			if existing, ok := headers[id]; ok {
				if existing.Hash() != h.Hash() {
					return nil, nil, fmt.Errorf("%w: bundle: conflicting header witnesses for chain %d block %d", herr.Witness, id.ChainID, id.BlockNumber)
				}
				continue
			}
			headers[id] = &h

			records = append(records, Record{
				Key: syscallkey.Header(witness.HeaderKey{ChainID: id.ChainID, BlockNumber: id.BlockNumber}),
				Value: families.Record{Values: headerValues(&h, h.Hash())},
			})
		}
	}
	return headers, records, nil
}

func headerValues(h *types.Header, hash common.Hash) []field.F {
	out := make([]field.F, selectors.HeaderCount)
	out[selectors.HeaderNumber] = field.FromUint64(h.Number.Uint64())
	out[selectors.HeaderHash] = field.FromBytes32([32]byte(hash))
	out[selectors.HeaderStateRoot] = field.FromBytes32([32]byte(h.Root))
	out[selectors.HeaderParentHash] = field.FromBytes32([32]byte(h.ParentHash))
	return out
}

func (b Bundle) verifyAccounts(headers map[headerID]*types.Header) (map[accountID]decodedAccount, []Record, error) {
	accounts := make(map[accountID]decodedAccount)
	var records []Record

	for _, aw := range b.EVM.Accounts {
		for _, p := range aw.Proofs {
			id := headerID{ChainID: b.ChainID, BlockNumber: p.BlockNumber}
			h, ok := headers[id]
			if !ok {
				return nil, nil, fmt.Errorf("%w: bundle: account witness for %s references unknown header at block %d", herr.Witness, aw.Address, p.BlockNumber)
			}

			key := crypto.Keccak256(aw.Address.Bytes())
			value, err := trie.VerifyProof(h.Root, key, buildProofDB(p.Nodes))
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bundle: verify account proof for %s at block %d: %v", herr.Witness, aw.Address, p.BlockNumber, err)
			}

			var acc rlpAccount
			if err := rlp.DecodeBytes(value, &acc); err != nil {
				return nil, nil, fmt.Errorf("%w: bundle: decode account rlp for %s: %v", herr.Witness, aw.Address, err)
			}

			aid := accountID{ChainID: b.ChainID, BlockNumber: p.BlockNumber, Address: aw.Address}
			accounts[aid] = decodedAccount{Nonce: acc.Nonce, Balance: acc.Balance, Root: acc.Root, CodeHash: acc.CodeHash}

			values := make([]field.F, selectors.AccountCount)
			values[selectors.AccountNonce] = field.FromUint64(acc.Nonce)
			values[selectors.AccountBalance] = field.FromBigInt(acc.Balance)
			values[selectors.AccountStateRoot] = field.FromBytes32([32]byte(acc.Root))
			values[selectors.AccountCodeHash] = field.FromBytes32(common.BytesToHash(acc.CodeHash))

			records = append(records, Record{
				Key:   syscallkey.Account(witness.AccountKey{ChainID: b.ChainID, BlockNumber: p.BlockNumber, Address: aw.Address}),
				Value: families.Record{Values: values},
			})
		}
	}
	return accounts, records, nil
}

type accountID struct {
	ChainID     chainid.ID
	BlockNumber uint64
	Address     common.Address
}

func (b Bundle) verifyStorages(accounts map[accountID]decodedAccount) ([]Record, error) {
	var records []Record
	for _, sw := range b.EVM.Storages {
		for _, p := range sw.Proofs {
			aid := accountID{ChainID: b.ChainID, BlockNumber: p.BlockNumber, Address: sw.Address}
			acc, ok := accounts[aid]
			if !ok {
				return nil, fmt.Errorf("%w: bundle: storage witness for %s/%s references unverified account at block %d", herr.Witness, sw.Address, sw.Slot, p.BlockNumber)
			}

			key := crypto.Keccak256(sw.Slot.Bytes())
			value, err := trie.VerifyProof(acc.Root, key, buildProofDB(p.Nodes))
			if err != nil {
				return nil, fmt.Errorf("%w: bundle: verify storage proof for %s/%s at block %d: %v", herr.Witness, sw.Address, sw.Slot, p.BlockNumber, err)
			}

			var raw []byte
			if len(value) > 0 {
				if err := rlp.DecodeBytes(value, &raw); err != nil {
					return nil, fmt.Errorf("%w: bundle: decode storage value for %s/%s: %v", herr.Witness, sw.Address, sw.Slot, err)
				}
			}
			var buf [32]byte
			copy(buf[32-len(raw):], raw)
			high, low := hints.SplitUint256(buf)

			records = append(records, Record{
				Key:   syscallkey.Storage(witness.StorageKey{ChainID: b.ChainID, BlockNumber: p.BlockNumber, Address: sw.Address, Slot: sw.Slot}),
				Value: families.Record{Values: []field.F{high, low}},
			})
		}
	}
	return records, nil
}

func (b Bundle) verifyReceipts(headers map[headerID]*types.Header) ([]Record, error) {
	var records []Record
	for _, rw := range b.EVM.Receipts {
		id := headerID{ChainID: b.ChainID, BlockNumber: rw.Proof.BlockNumber}
		h, ok := headers[id]
		if !ok {
			return nil, fmt.Errorf("%w: bundle: receipt witness references unknown header at block %d", herr.Witness, rw.Proof.BlockNumber)
		}

		var txIndex uint64
		if err := rlp.DecodeBytes(rw.Key.Bytes(), &txIndex); err != nil {
			return nil, fmt.Errorf("%w: bundle: decode receipt key at block %d: %v", herr.Witness, rw.Proof.BlockNumber, err)
		}
		value, err := trie.VerifyProof(h.ReceiptHash, rw.Key.Bytes(), buildProofDB(rw.Proof.Nodes))
		if err != nil {
			return nil, fmt.Errorf("%w: bundle: verify receipt proof at block %d index %d: %v", herr.Witness, rw.Proof.BlockNumber, txIndex, err)
		}

		records = append(records, Record{
			Key:   syscallkey.Receipt(witness.ReceiptKey{ChainID: b.ChainID, BlockNumber: rw.Proof.BlockNumber, TransactionIndex: txIndex}),
			Value: families.Record{Values: hints.ChunkBytesLE(value)},
		})
	}
	return records, nil
}

func (b Bundle) verifyTransactions(headers map[headerID]*types.Header) ([]Record, error) {
	var records []Record
	for _, tw := range b.EVM.Transactions {
		id := headerID{ChainID: b.ChainID, BlockNumber: tw.Proof.BlockNumber}
		h, ok := headers[id]
		if !ok {
			return nil, fmt.Errorf("%w: bundle: transaction witness references unknown header at block %d", herr.Witness, tw.Proof.BlockNumber)
		}

		var txIndex uint64
		if err := rlp.DecodeBytes(tw.Key.Bytes(), &txIndex); err != nil {
			return nil, fmt.Errorf("%w: bundle: decode transaction key at block %d: %v", herr.Witness, tw.Proof.BlockNumber, err)
		}
		value, err := trie.VerifyProof(h.TxHash, tw.Key.Bytes(), buildProofDB(tw.Proof.Nodes))
		if err != nil {
			return nil, fmt.Errorf("%w: bundle: verify transaction proof at block %d index %d: %v", herr.Witness, tw.Proof.BlockNumber, txIndex, err)
		}

		records = append(records, Record{
			Key:   syscallkey.Transaction(witness.TransactionKey{ChainID: b.ChainID, BlockNumber: tw.Proof.BlockNumber, TransactionIndex: txIndex}),
			Value: families.Record{Values: hints.ChunkBytesLE(value)},
		})
	}
	return records, nil
}

func (b Bundle) verifyTrieProofs() ([]Record, error) {
	var records []Record
	for _, sp := range b.TrieProofs {
		want := sp.PrevValue
		if sp.Kind == "write" {
			want = sp.NewValue
		}
		outcome, err := kvtrie.VerifyProof(sp.Proof, want)
		if err != nil {
			return nil, fmt.Errorf("%w: bundle: replay trie proof for label %s: %v", herr.Witness, sp.TrieLabel.String(), err)
		}
		if outcome == kvtrie.None {
			return nil, fmt.Errorf("%w: bundle: trie proof for label %s does not replay to its claimed root", herr.Witness, sp.TrieLabel.String())
		}
		if outcome == kvtrie.NonMember && !want.IsZero() {
			return nil, fmt.Errorf("%w: bundle: trie proof for label %s claims a non-zero value but proves non-membership", herr.Witness, sp.TrieLabel.String())
		}

		if sp.Kind != "read" {
			continue
		}
		records = append(records, Record{
			Key:   syscallkey.TrieEntry(syscallkey.TrieEntryKey{Label: sp.TrieLabel, Key: sp.Proof.Key}),
			Value: families.Record{Values: []field.F{sp.PrevValue}},
		})
	}
	return records, nil
}

func buildProofDB(nodes [][]byte) ethdb.KeyValueReader {
	db := memorydb.New()
	for _, n := range nodes {
		_ = db.Put(crypto.Keccak256(n), n)
	}
	return db
}
