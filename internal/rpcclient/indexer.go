package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hdp-go/hdp/internal/chainid"
)

// IndexerMMRMeta mirrors the indexer's mmr_meta block of a headers-proof
// response (original_source/crates/indexer's IndexerQuery response shape).
type IndexerMMRMeta struct {
	MMRID           string   `json:"mmr_id"`
	MMRSize         uint64   `json:"mmr_size"`
	MMRRoot         string   `json:"mmr_root"`
	MMRPeaks        []string `json:"mmr_peaks"`
	HashingFunction string   `json:"hashing_function"`
}

// IndexerHeaderProof is one block's header MMR inclusion proof. Exactly one
// of RLP or RLPLEChunks is populated, mirroring BlockHeader's
// RlpString/RlpLittleEndian8ByteChunks variants.
type IndexerHeaderProof struct {
	ElementIndex   uint64   `json:"element_index"`
	SiblingsHashes []string `json:"siblings_hashes"`
	RLP            string   `json:"rlp_string,omitempty"`
	RLPLEChunks    []string `json:"rlp_le_chunks,omitempty"`
}

// IndexerHeadersProofResponse is the indexer's response to a headers-proof
// query over an inclusive block range.
type IndexerHeadersProofResponse struct {
	MMRMeta IndexerMMRMeta                `json:"mmr_meta"`
	Headers map[uint64]IndexerHeaderProof `json:"headers"`
}

// IndexerClient is the block-header indexer boundary (spec.md §1 Non-goals:
// indexer transport internals are out of scope).
type IndexerClient interface {
	GetHeadersProof(ctx context.Context, chain chainid.ID, fromBlock, toBlock uint64) (IndexerHeadersProofResponse, error)
}

type httpIndexerClient struct {
	baseURL string
	http    *http.Client
}

// NewIndexerClient builds an IndexerClient against the given base URL.
func NewIndexerClient(baseURL string) IndexerClient {
	return &httpIndexerClient{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *httpIndexerClient) GetHeadersProof(ctx context.Context, chain chainid.ID, fromBlock, toBlock uint64) (IndexerHeadersProofResponse, error) {
	var zero IndexerHeadersProofResponse

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return zero, fmt.Errorf("rpcclient: indexer base url: %w", err)
	}
	u.Path = "/headers-proof"
	q := u.Query()
	q.Set("chain_id", strconv.Itoa(int(chain)))
	q.Set("from_block", strconv.FormatUint(fromBlock, 10))
	q.Set("to_block", strconv.FormatUint(toBlock, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, fmt.Errorf("rpcclient: build indexer request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("rpcclient: indexer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("rpcclient: indexer responded %d", resp.StatusCode)
	}

	var out IndexerHeadersProofResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("rpcclient: decode indexer response: %w", err)
	}
	return out, nil
}
