package witness

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/mmr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/stretchr/testify/require"
)

type stubIndexer struct {
	resp rpcclient.IndexerHeadersProofResponse
}

func (s stubIndexer) GetHeadersProof(ctx context.Context, chain chainid.ID, from, to uint64) (rpcclient.IndexerHeadersProofResponse, error) {
	return s.resp, nil
}

func TestFetchHeaderProofDecodesPlainRLP(t *testing.T) {
	resp := rpcclient.IndexerHeadersProofResponse{
		MMRMeta: rpcclient.IndexerMMRMeta{
			MMRID:           "0x1",
			MMRSize:         10,
			MMRRoot:         "0x" + common.Hash{1}.Hex()[2:],
			MMRPeaks:        []string{"0x" + common.Hash{2}.Hex()[2:]},
			HashingFunction: "keccak",
		},
		Headers: map[uint64]rpcclient.IndexerHeaderProof{
			5: {
				ElementIndex:   7,
				SiblingsHashes: []string{"0x" + common.Hash{3}.Hex()[2:]},
				RLP:            "0xdeadbeef",
			},
		},
	}

	hm, err := FetchHeaderProof(context.Background(), stubIndexer{resp: resp}, HeaderKey{ChainID: chainid.EthereumMainnet, BlockNumber: 5})
	require.NoError(t, err)
	require.Equal(t, uint64(10), hm.Meta.Size)
	require.Equal(t, mmr.Keccak, hm.Meta.Hasher)
	require.Len(t, hm.Headers, 1)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, hm.Headers[0].RLP)
	require.Equal(t, uint64(7), hm.Headers[0].Proof.LeafIdx)
}

func TestFetchHeaderProofDecodesChunkedRLP(t *testing.T) {
	// "deadbeefcafebabe" as one 8-byte little-endian chunk: reversed bytes.
	resp := rpcclient.IndexerHeadersProofResponse{
		MMRMeta: rpcclient.IndexerMMRMeta{
			MMRID:   "0x1",
			MMRSize: 1,
			MMRRoot: "0x" + common.Hash{}.Hex()[2:],
		},
		Headers: map[uint64]rpcclient.IndexerHeaderProof{
			1: {
				ElementIndex: 1,
				RLPLEChunks:  []string{"0xbebafecaefbeadde"},
			},
		},
	}

	hm, err := FetchHeaderProof(context.Background(), stubIndexer{resp: resp}, HeaderKey{ChainID: chainid.EthereumMainnet, BlockNumber: 1})
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0xca, 0xfe, 0xba, 0xbe}, hm.Headers[0].RLP)
}

func TestRequestKeysDedup(t *testing.T) {
	keys := NewRequestKeys()
	k := AccountKey{ChainID: chainid.EthereumMainnet, BlockNumber: 100, Address: common.HexToAddress("0x1")}
	keys.Accounts[k] = struct{}{}
	keys.Accounts[k] = struct{}{}
	require.Len(t, keys.Accounts, 1)
}

func TestAccountKeyHeaderProjection(t *testing.T) {
	k := AccountKey{ChainID: chainid.EthereumMainnet, BlockNumber: 42, Address: common.HexToAddress("0x1")}
	require.Equal(t, HeaderKey{ChainID: chainid.EthereumMainnet, BlockNumber: 42}, k.Header())
}
