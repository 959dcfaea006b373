package witness

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/hdp-go/hdp/internal/rpcclient"
)

// BlockClient is the subset of EVMClient needed to rebuild a block's
// transaction and receipt tries locally, since eth_getProof has no
// equivalent for transactions/receipts — the indexer/RPC boundary is a
// full block plus its receipts, and the trie (and its proof) is rebuilt
// host-side exactly as the chain itself built it.
type BlockClient interface {
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	BlockReceipts(ctx context.Context, number *big.Int) (types.Receipts, error)
}

// buildIndexedProof rebuilds the Merkle-Patricia trie for an ordered,
// RLP-indexed list (transactions or receipts) and extracts the inclusion
// proof for one index, mirroring proof_keys.rs's
// generate_block_tx_proof/generate_block_tx_receipt_proof (which delegate to
// eth_trie_proofs' MptHandler: build the whole block's trie, then prove a
// single index).
func buildIndexedProof(list types.DerivableList, index uint64) ([][]byte, error) {
	db := trie.NewDatabase(memorydb.New(), nil)
	t := trie.NewEmpty(db)

	for i := 0; i < list.Len(); i++ {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			return nil, fmt.Errorf("witness: encode trie key %d: %w", i, err)
		}
		val, err := encodeIndexed(list, i)
		if err != nil {
			return nil, fmt.Errorf("witness: encode trie value %d: %w", i, err)
		}
		if err := t.Update(key, val); err != nil {
			return nil, fmt.Errorf("witness: update trie at %d: %w", i, err)
		}
	}

	key, err := rlp.EncodeToBytes(uint(index))
	if err != nil {
		return nil, fmt.Errorf("witness: encode proof key: %w", err)
	}
	proofDB := memorydb.New()
	if err := t.Prove(key, proofDB); err != nil {
		return nil, fmt.Errorf("witness: prove index %d: %w", index, err)
	}

	it := proofDB.NewIterator(nil, nil)
	defer it.Release()
	var nodes [][]byte
	for it.Next() {
		v := make([]byte, len(it.Value()))
		copy(v, it.Value())
		nodes = append(nodes, v)
	}
	return nodes, nil
}

func encodeIndexed(list types.DerivableList, i int) ([]byte, error) {
	switch l := list.(type) {
	case types.Transactions:
		return l[i].MarshalBinary()
	case types.Receipts:
		return l[i].MarshalBinary()
	default:
		return nil, fmt.Errorf("witness: unsupported derivable list %T", list)
	}
}

// FetchReceiptProof fetches a transaction receipt's trie inclusion proof by
// rebuilding the block's receipt trie locally, grounded on proof_keys.rs's
// fetch_receipt_proof / generate_block_tx_receipt_proof.
func FetchReceiptProof(ctx context.Context, blocks BlockClient, indexer rpcclient.IndexerClient, key ReceiptKey) (HeaderMmrMeta, ReceiptWitness, error) {
	header, err := FetchHeaderProof(ctx, indexer, key.Header())
	if err != nil {
		return HeaderMmrMeta{}, ReceiptWitness{}, err
	}

	receipts, err := blocks.BlockReceipts(ctx, new(big.Int).SetUint64(key.BlockNumber))
	if err != nil {
		return HeaderMmrMeta{}, ReceiptWitness{}, fmt.Errorf("witness: fetch block receipts %d: %w", key.BlockNumber, err)
	}

	nodes, err := buildIndexedProof(receipts, key.TransactionIndex)
	if err != nil {
		return HeaderMmrMeta{}, ReceiptWitness{}, err
	}

	rlpKey, err := rlp.EncodeToBytes(new(big.Int).SetUint64(key.TransactionIndex))
	if err != nil {
		return HeaderMmrMeta{}, ReceiptWitness{}, fmt.Errorf("witness: encode receipt key: %w", err)
	}

	return header, ReceiptWitness{
		Key:   new(big.Int).SetBytes(rlpKey),
		Proof: MPTProof{BlockNumber: key.BlockNumber, Nodes: nodes},
	}, nil
}

// FetchTransactionProof fetches a transaction's trie inclusion proof by
// rebuilding the block's transaction trie locally, grounded on
// proof_keys.rs's fetch_transaction_proof / generate_block_tx_proof.
func FetchTransactionProof(ctx context.Context, blocks BlockClient, indexer rpcclient.IndexerClient, key TransactionKey) (HeaderMmrMeta, TransactionWitness, error) {
	header, err := FetchHeaderProof(ctx, indexer, key.Header())
	if err != nil {
		return HeaderMmrMeta{}, TransactionWitness{}, err
	}

	block, err := blocks.BlockByNumber(ctx, new(big.Int).SetUint64(key.BlockNumber))
	if err != nil {
		return HeaderMmrMeta{}, TransactionWitness{}, fmt.Errorf("witness: fetch block %d: %w", key.BlockNumber, err)
	}

	nodes, err := buildIndexedProof(block.Transactions(), key.TransactionIndex)
	if err != nil {
		return HeaderMmrMeta{}, TransactionWitness{}, err
	}

	rlpKey, err := rlp.EncodeToBytes(new(big.Int).SetUint64(key.TransactionIndex))
	if err != nil {
		return HeaderMmrMeta{}, TransactionWitness{}, fmt.Errorf("witness: encode transaction key: %w", err)
	}

	return header, TransactionWitness{
		Key:   new(big.Int).SetBytes(rlpKey),
		Proof: MPTProof{BlockNumber: key.BlockNumber, Nodes: nodes},
	}, nil
}
