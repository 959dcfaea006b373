// Package rpcclient is the external-collaborator boundary to chain RPC
// endpoints and the block-header indexer (spec.md §1 Non-goals: RPC/indexer
// transport internals are out of scope; only the interfaces this provider
// calls through are owned here). Grounded on geth-12-proofs and
// geth-25-toolbox's ethclient usage.
package rpcclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// StorageProofEntry is one storage slot's proof within an AccountProof.
type StorageProofEntry struct {
	Key   string
	Value *big.Int
	Proof []string
}

// AccountProof mirrors the eth_getProof response this provider consumes to
// build account and storage witnesses.
type AccountProof struct {
	Address      common.Address
	Balance      *big.Int
	Nonce        uint64
	CodeHash     common.Hash
	StorageHash  common.Hash
	AccountProof []string
	StorageProof []StorageProofEntry
}

// EVMClient is the EVM-family chain RPC boundary: header lookups and
// eth_getProof account/storage proofs.
type EVMClient interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	StorageAt(ctx context.Context, account common.Address, slot common.Hash, blockNumber *big.Int) ([]byte, error)
	GetProof(ctx context.Context, address common.Address, storageKeys []string, blockNumber *big.Int) (*AccountProof, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	BlockReceipts(ctx context.Context, number *big.Int) (types.Receipts, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	Close()
}

type gethEVMClient struct {
	eth *ethclient.Client
	gc  *gethclient.Client
}

// DialEVM connects to an EVM-family JSON-RPC endpoint, grounded on
// geth-12-proofs's ethclient.DialContext usage.
func DialEVM(ctx context.Context, rpcURL string) (EVMClient, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", rpcURL, err)
	}
	return &gethEVMClient{
		eth: ethclient.NewClient(rc),
		gc:  gethclient.New(rc),
	}, nil
}

func (g *gethEVMClient) Close() { g.eth.Close() }

func (g *gethEVMClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	h, err := g.eth.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: header by number %v: %w", number, err)
	}
	return h, nil
}

func (g *gethEVMClient) StorageAt(ctx context.Context, account common.Address, slot common.Hash, blockNumber *big.Int) ([]byte, error) {
	v, err := g.eth.StorageAt(ctx, account, slot, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: storage at %s/%s: %w", account, slot, err)
	}
	return v, nil
}

func (g *gethEVMClient) GetProof(ctx context.Context, address common.Address, storageKeys []string, blockNumber *big.Int) (*AccountProof, error) {
	result, err := g.gc.GetProof(ctx, address, storageKeys, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: get proof for %s: %w", address, err)
	}
	out := &AccountProof{
		Address:      result.Address,
		Balance:      result.Balance,
		Nonce:        result.Nonce,
		CodeHash:     result.CodeHash,
		StorageHash:  result.StorageHash,
		AccountProof: toHexStrings(result.AccountProof),
		StorageProof: make([]StorageProofEntry, len(result.StorageProof)),
	}
	for i, sp := range result.StorageProof {
		out.StorageProof[i] = StorageProofEntry{
			Key:   sp.Key,
			Value: sp.Value,
			Proof: toHexStrings(sp.Proof),
		}
	}
	return out, nil
}

func (g *gethEVMClient) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	b, err := g.eth.BlockByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: block by number %v: %w", number, err)
	}
	return b, nil
}

func (g *gethEVMClient) BlockReceipts(ctx context.Context, number *big.Int) (types.Receipts, error) {
	rs, err := g.eth.BlockReceipts(ctx, rpc.BlockNumberOrHashWithNumber(rpc.BlockNumber(number.Int64())))
	if err != nil {
		return nil, fmt.Errorf("rpcclient: block receipts %v: %w", number, err)
	}
	return types.Receipts(rs), nil
}

func (g *gethEVMClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	code, err := g.eth.CodeAt(ctx, account, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: code at %s: %w", account, err)
	}
	return code, nil
}

func toHexStrings(nodes []string) []string {
	out := make([]string, len(nodes))
	copy(out, nodes)
	return out
}
