package witness

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/mmr"
	"github.com/hdp-go/hdp/internal/rpcclient"
)

// normalizeHex mirrors proof_keys.rs's ProofKeys::normalize_hex: strips a
// "0x" prefix and left-pads to an even number of hex digits.
func normalizeHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b := common.FromHex("0x" + normalizeHex(s))
	if len(b) > 32 {
		return out, fmt.Errorf("witness: value %q too wide for 32 bytes", s)
	}
	copy(out[32-len(b):], b)
	return out, nil
}

// FetchHeaderProof fetches one block's header RLP and MMR inclusion proof,
// grounded on proof_keys.rs's fetch_header_proof.
func FetchHeaderProof(ctx context.Context, indexer rpcclient.IndexerClient, key HeaderKey) (HeaderMmrMeta, error) {
	resp, err := indexer.GetHeadersProof(ctx, key.ChainID, key.BlockNumber, key.BlockNumber)
	if err != nil {
		return HeaderMmrMeta{}, fmt.Errorf("witness: fetch header proof: %w", err)
	}

	rootBytes, err := decodeHex32(resp.MMRMeta.MMRRoot)
	if err != nil {
		return HeaderMmrMeta{}, fmt.Errorf("witness: mmr root: %w", err)
	}
	peaks := make([][32]byte, len(resp.MMRMeta.MMRPeaks))
	for i, p := range resp.MMRMeta.MMRPeaks {
		pb, err := decodeHex32(p)
		if err != nil {
			return HeaderMmrMeta{}, fmt.Errorf("witness: mmr peak %d: %w", i, err)
		}
		peaks[i] = pb
	}
	mmrID := new(big.Int)
	if _, ok := mmrID.SetString(normalizeHex(resp.MMRMeta.MMRID), 16); !ok {
		return HeaderMmrMeta{}, fmt.Errorf("witness: malformed mmr id %q", resp.MMRMeta.MMRID)
	}

	hasher := mmr.Keccak
	if resp.MMRMeta.HashingFunction != "" {
		hasher, err = mmr.ParseHasher(resp.MMRMeta.HashingFunction)
		if err != nil {
			return HeaderMmrMeta{}, fmt.Errorf("witness: mmr hasher: %w", err)
		}
	}
	meta, err := mmr.DecodeMeta(key.ChainID, mmrID.Uint64(), resp.MMRMeta.MMRSize, rootBytes, peaks, hasher)
	if err != nil {
		return HeaderMmrMeta{}, fmt.Errorf("witness: decode mmr meta: %w", err)
	}

	proofEntry, ok := resp.Headers[key.BlockNumber]
	if !ok {
		return HeaderMmrMeta{}, fmt.Errorf("witness: indexer response missing block %d", key.BlockNumber)
	}

	var rlp []byte
	switch {
	case proofEntry.RLP != "":
		rlp = common.FromHex("0x" + normalizeHex(proofEntry.RLP))
	case len(proofEntry.RLPLEChunks) > 0:
		rlp, err = decodeLEChunkedRLP(proofEntry.RLPLEChunks)
		if err != nil {
			return HeaderMmrMeta{}, fmt.Errorf("witness: decode chunked rlp: %w", err)
		}
	default:
		return HeaderMmrMeta{}, fmt.Errorf("witness: indexer response has no header rlp for block %d", key.BlockNumber)
	}

	path := make([][32]byte, len(proofEntry.SiblingsHashes))
	for i, h := range proofEntry.SiblingsHashes {
		hb, err := decodeHex32(h)
		if err != nil {
			return HeaderMmrMeta{}, fmt.Errorf("witness: mmr sibling %d: %w", i, err)
		}
		path[i] = hb
	}

	return HeaderMmrMeta{
		Meta: meta,
		Headers: []HeaderWitness{{
			RLP: rlp,
			Proof: mmr.Proof{
				LeafIdx: proofEntry.ElementIndex,
				MMRPath: path,
			},
		}},
	}, nil
}

// decodeLEChunkedRLP reverses proof_keys.rs's chunk encoding: each hex
// string is one 8-byte little-endian chunk (per-chunk byte order reversed
// relative to the original RLP bytes); concatenating the reversed chunks
// reconstructs the original byte stream.
func decodeLEChunkedRLP(chunks []string) ([]byte, error) {
	out := make([]byte, 0, len(chunks)*hints.ChunkSize)
	for i, c := range chunks {
		b := common.FromHex("0x" + normalizeHex(c))
		if len(b) != hints.ChunkSize {
			return nil, fmt.Errorf("chunk %d has %d bytes, want %d", i, len(b), hints.ChunkSize)
		}
		rev := make([]byte, len(b))
		for j, v := range b {
			rev[len(b)-1-j] = v
		}
		out = append(out, rev...)
	}
	return out, nil
}

// FetchAccountProof fetches an account's eth_getProof proof at a block,
// along with the header it is checked against, grounded on
// proof_keys.rs's fetch_account_proof.
func FetchAccountProof(ctx context.Context, evm rpcclient.EVMClient, indexer rpcclient.IndexerClient, key AccountKey) (HeaderMmrMeta, AccountWitness, error) {
	header, err := FetchHeaderProof(ctx, indexer, key.Header())
	if err != nil {
		return HeaderMmrMeta{}, AccountWitness{}, err
	}

	proof, err := evm.GetProof(ctx, key.Address, nil, new(big.Int).SetUint64(key.BlockNumber))
	if err != nil {
		return HeaderMmrMeta{}, AccountWitness{}, fmt.Errorf("witness: fetch account proof: %w", err)
	}

	nodes := make([][]byte, len(proof.AccountProof))
	for i, n := range proof.AccountProof {
		nodes[i] = common.FromHex(n)
	}

	return header, AccountWitness{
		Address: key.Address,
		Proofs:  []MPTProof{{BlockNumber: key.BlockNumber, Nodes: nodes}},
	}, nil
}

// FetchStorageProof fetches a storage slot's proof together with the
// account and header it descends from, grounded on proof_keys.rs's
// fetch_storage_proof.
func FetchStorageProof(ctx context.Context, evm rpcclient.EVMClient, indexer rpcclient.IndexerClient, key StorageKey) (HeaderMmrMeta, AccountWitness, StorageWitness, error) {
	header, err := FetchHeaderProof(ctx, indexer, key.Header())
	if err != nil {
		return HeaderMmrMeta{}, AccountWitness{}, StorageWitness{}, err
	}

	slotHex := key.Slot.Hex()
	proof, err := evm.GetProof(ctx, key.Address, []string{slotHex}, new(big.Int).SetUint64(key.BlockNumber))
	if err != nil {
		return HeaderMmrMeta{}, AccountWitness{}, StorageWitness{}, fmt.Errorf("witness: fetch storage proof: %w", err)
	}

	accountNodes := make([][]byte, len(proof.AccountProof))
	for i, n := range proof.AccountProof {
		accountNodes[i] = common.FromHex(n)
	}

	var storageNodes [][]byte
	for _, sp := range proof.StorageProof {
		for _, n := range sp.Proof {
			storageNodes = append(storageNodes, common.FromHex(n))
		}
	}

	return header,
		AccountWitness{Address: key.Address, Proofs: []MPTProof{{BlockNumber: key.BlockNumber, Nodes: accountNodes}}},
		StorageWitness{Address: key.Address, Slot: key.Slot, Proofs: []MPTProof{{BlockNumber: key.BlockNumber, Nodes: storageNodes}}},
		nil
}
