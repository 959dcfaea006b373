package orchestrator

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/dryrun"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/kvtrie"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/trieservice"
)

type stubStarknet struct {
	header  rpcclient.StarknetHeader
	storage rpcclient.StarknetStorageProof
}

func (s stubStarknet) BlockWithTxHashes(ctx context.Context, blockNumber uint64) (rpcclient.StarknetHeader, error) {
	return s.header, nil
}

func (s stubStarknet) StorageProof(ctx context.Context, blockNumber uint64, contract, key string) (rpcclient.StarknetStorageProof, error) {
	return s.storage, nil
}

func (s stubStarknet) Close() {}

// TestFetchStarknetReplaysFamilyConventions guards the orchestrator's replay
// of the Starknet families' established value conventions: a header's value
// is its new state root, a storage slot's value is the proof's GlobalRoots
// field rather than a separately fetched slot value.
func TestFetchStarknetReplaysFamilyConventions(t *testing.T) {
	root := field.FromUint64(42)
	globalRoots := field.FromUint64(7)

	o := &Orchestrator{
		ChainID: chainid.StarknetMainnet,
		Starknet: stubStarknet{
			header:  rpcclient.StarknetHeader{BlockNumber: 100, NewRoot: root.String()},
			storage: rpcclient.StarknetStorageProof{GlobalRoots: globalRoots.String()},
		},
	}

	keys := []syscallkey.Key{
		syscallkey.Starknet(syscallkey.StarknetHeaderKey{ChainID: chainid.StarknetMainnet, BlockNumber: 100}),
		syscallkey.StarknetStor(syscallkey.StarknetStorageKey{
			ChainID: chainid.StarknetMainnet, BlockNumber: 100,
			Contract: field.FromUint64(1), Slot: field.FromUint64(2),
		}),
	}

	headers, storages, err := o.fetchStarknet(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.True(t, headers[0].NewRoot.Equal(root))
	require.Len(t, storages, 1)
	require.True(t, storages[0].Value.Equal(globalRoots))
}

func TestFetchTrieProofsSkipsEmptyActivity(t *testing.T) {
	o := &Orchestrator{}
	proofs, err := o.fetchTrieProofs(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, proofs)
}

// TestFetchTrieProofsBatchesWritesBeforeReads guards the ordering contract
// fetchTrieProofs relies on: staged writes must precede forwarded reads in
// the batch request so the trie service's in-order replay sees the same
// history the dry run observed.
func TestFetchTrieProofsBatchesWritesBeforeReads(t *testing.T) {
	label := field.FromUint64(1)
	root := field.FromUint64(2)
	key := field.FromUint64(3)
	node := kvtrie.NewEdge(kvtrie.Height, field.FromUint64(0), field.FromUint64(9), true)

	var gotKinds []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Actions []struct {
				Kind string `json:"kind"`
			} `json:"actions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, a := range req.Actions {
			gotKinds = append(gotKinds, a.Kind)
		}

		resp := map[string]any{
			"batch_id": "t",
			"state_proofs": []map[string]any{
				{
					"kind": "write", "trie_label": label.String(), "root": root.String(), "key": key.String(),
					"prev_value": field.FromUint64(0).String(), "new_value": field.FromUint64(9).String(),
					"nodes": []string{hex.EncodeToString(node.Encode())},
				},
				{
					"kind": "read", "trie_label": label.String(), "root": root.String(), "key": key.String(),
					"prev_value": field.FromUint64(9).String(), "new_value": field.FromUint64(9).String(),
					"nodes": []string{hex.EncodeToString(node.Encode())},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	o := &Orchestrator{TrieBulk: trieservice.NewClient(srv.URL)}

	writes := []dryrun.TrieWrite{{TrieRoot: root, Label: label, Key: key, Value: field.FromUint64(9)}}
	reads := []dryrun.TrieRead{{TrieRoot: root, Label: label, Key: key}}

	proofs, err := o.fetchTrieProofs(context.Background(), writes, reads)
	require.NoError(t, err)
	require.Equal(t, []string{"write", "read"}, gotKinds)
	require.Len(t, proofs, 2)
	require.Equal(t, "write", proofs[0].Kind)
	require.Equal(t, "read", proofs[1].Kind)
}
