package dryrun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
)

// TrieClient is the KV-trie auxiliary family's collaborator boundary: the
// dry-run pass consults it for Read, and records Write intent locally
// (internal/dryrun/families/kvtrie.go stages writes rather than committing
// them, per spec.md §4.D's "Write simulation"). Grounded on
// internal/kvtrie/service's /read/{label} and /get_trie_root_node_idx routes.
type TrieClient interface {
	Read(ctx context.Context, label, key field.F) (field.F, error)
	RootNodeIdx(ctx context.Context, label field.F) (uint64, error)
}

type httpTrieClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPTrieClient dials the state-server's HTTP surface at baseURL.
func NewHTTPTrieClient(baseURL string) TrieClient {
	return &httpTrieClient{baseURL: baseURL, hc: http.DefaultClient}
}

func (c *httpTrieClient) Read(ctx context.Context, label, key field.F) (field.F, error) {
	u := fmt.Sprintf("%s/read/%s?key=%s", c.baseURL, label.String(), url.QueryEscape(key.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return field.F{}, fmt.Errorf("%w: dryrun: build read request: %v", herr.Trie, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return field.F{}, fmt.Errorf("%w: dryrun: read %s/%s: %v", herr.Trie, label, key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return field.F{}, fmt.Errorf("%w: dryrun: read %s/%s: status %d", herr.Trie, label, key, resp.StatusCode)
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return field.F{}, fmt.Errorf("%w: dryrun: decode read response: %v", herr.Trie, err)
	}
	v, err := field.ParseHex(body.Value)
	if err != nil {
		return field.F{}, fmt.Errorf("%w: dryrun: parse read value: %v", herr.Trie, err)
	}
	return v, nil
}

func (c *httpTrieClient) RootNodeIdx(ctx context.Context, label field.F) (uint64, error) {
	u := fmt.Sprintf("%s/get_trie_root_node_idx?label=%s", c.baseURL, url.QueryEscape(label.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: dryrun: build root idx request: %v", herr.Trie, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: dryrun: root idx %s: %v", herr.Trie, label, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: dryrun: root idx %s: status %d", herr.Trie, label, resp.StatusCode)
	}
	var body struct {
		RootNodeIdx uint64 `json:"root_node_idx"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: dryrun: decode root idx response: %v", herr.Trie, err)
	}
	return body.RootNodeIdx, nil
}
