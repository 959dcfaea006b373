package rpcclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// StarknetHeader is the subset of a Starknet block header this provider
// needs, decoded from starknet_getBlockWithTxHashes's JSON-RPC response.
type StarknetHeader struct {
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	NewRoot     string `json:"new_root"`
}

// StarknetStorageProof mirrors starknet_getStorageProof's response: the
// per-contract trie node paths needed to verify a leaf under the global
// state commitment.
type StarknetStorageProof struct {
	ClassesProof         []string `json:"classes_proof"`
	ContractsProof       []string `json:"contracts_proof"`
	ContractsStorageKeys []string `json:"contracts_storage_keys"`
	GlobalRoots          string   `json:"global_roots"`
}

// StarknetClient is the Starknet-family JSON-RPC boundary, the sibling of
// EVMClient for chains whose headers are field-packed rather than RLP and
// whose proofs come back as starknet_getStorageProof responses instead of
// eth_getProof (spec.md §4.D: "Starknet variants are Header=0, Storage=1").
type StarknetClient interface {
	BlockWithTxHashes(ctx context.Context, blockNumber uint64) (StarknetHeader, error)
	StorageProof(ctx context.Context, blockNumber uint64, contract, key string) (StarknetStorageProof, error)
	Close()
}

type gethStarknetClient struct {
	rc *rpc.Client
}

// DialStarknet connects to a Starknet JSON-RPC endpoint, grounded on the
// same rpc.DialContext idiom DialEVM uses (go-ethereum's rpc.Client speaks
// any JSON-RPC 2.0 server, not only geth's).
func DialStarknet(ctx context.Context, rpcURL string) (StarknetClient, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial starknet %s: %w", rpcURL, err)
	}
	return &gethStarknetClient{rc: rc}, nil
}

func (g *gethStarknetClient) Close() { g.rc.Close() }

func (g *gethStarknetClient) BlockWithTxHashes(ctx context.Context, blockNumber uint64) (StarknetHeader, error) {
	var out StarknetHeader
	params := map[string]any{"block_number": blockNumber}
	if err := g.rc.CallContext(ctx, &out, "starknet_getBlockWithTxHashes", params); err != nil {
		return StarknetHeader{}, fmt.Errorf("rpcclient: starknet block %d: %w", blockNumber, err)
	}
	return out, nil
}

func (g *gethStarknetClient) StorageProof(ctx context.Context, blockNumber uint64, contract, key string) (StarknetStorageProof, error) {
	var out StarknetStorageProof
	params := map[string]any{
		"block_id":              map[string]any{"block_number": blockNumber},
		"contract_storage_keys": []map[string]any{{"contract_address": contract, "storage_keys": []string{key}}},
	}
	if err := g.rc.CallContext(ctx, &out, "starknet_getStorageProof", params); err != nil {
		return StarknetStorageProof{}, fmt.Errorf("rpcclient: starknet storage proof %s/%s at %d: %w", contract, key, blockNumber, err)
	}
	return out, nil
}
