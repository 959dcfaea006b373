package trieservice

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/kvtrie"
)

// TestGetStateProofsDecodesNodeEncodings guards the wire contract against
// internal/kvtrie/service's toWireProofs: each node must arrive as its full
// hex-encoded trienode.Node.Encode() output, not merely its hash, since the
// client needs the actual node content (Left/Right/Path/Child) to replay the
// proof through kvtrie.VerifyProof.
func TestGetStateProofsDecodesNodeEncodings(t *testing.T) {
	label := field.FromUint64(1)
	root := field.FromUint64(2)
	key := field.FromUint64(3)
	leaf := kvtrie.NewEdge(kvtrie.Height, field.FromUint64(0), field.FromUint64(9), true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get_state_proofs", r.URL.Path)
		resp := map[string]any{
			"batch_id": "test",
			"state_proofs": []map[string]any{
				{
					"kind":       "read",
					"trie_label": label.String(),
					"root":       root.String(),
					"key":        key.String(),
					"prev_value": field.FromUint64(9).String(),
					"new_value":  field.FromUint64(9).String(),
					"nodes":      []string{hex.EncodeToString(leaf.Encode())},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	proofs, err := c.GetStateProofs(context.Background(), []Action{
		{Kind: "read", TrieLabel: label, TrieRoot: root, Key: key},
	})
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	require.Equal(t, "read", proofs[0].Kind)
	require.True(t, proofs[0].Proof.Root.Equal(root))
	require.True(t, proofs[0].Proof.Key.Equal(key))
	require.Len(t, proofs[0].Proof.Nodes, 1)
	require.Equal(t, leaf.Hash(), proofs[0].Proof.Nodes[0].Hash())
}

func TestGetStateProofsPropagatesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetStateProofs(context.Background(), []Action{{Kind: "read"}})
	require.Error(t, err)
}
