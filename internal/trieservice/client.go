// Package trieservice is the orchestrator's HTTP client for the KV-Trie
// Engine's batch endpoint (internal/kvtrie/service's /get_state_proofs),
// grounded on internal/rpcclient/indexer.go's plain net/http+encoding/json
// client idiom — the same style internal/dryrun/trieclient.go already uses
// for the single-action endpoints.
package trieservice

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/kvtrie"
)

// Action is one entry of a /get_state_proofs batch request.
type Action struct {
	Kind      string // "read" or "write"
	TrieLabel field.F
	TrieRoot  field.F
	Key       field.F
	Value     field.F // only meaningful for "write"
}

// StateProof is one batch response entry, replayable against its claimed
// root via kvtrie.VerifyProof.
type StateProof struct {
	Kind      string
	TrieLabel field.F
	Proof     kvtrie.Proof
	PrevValue field.F
	NewValue  field.F
}

// Client talks to a running state-server instance.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a Client against baseURL (the INJECTED_STATE_BASE_URL
// environment variable's value).
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, hc: http.DefaultClient}
}

type actionWire struct {
	Kind      string `json:"kind"`
	TrieLabel string `json:"trie_label"`
	TrieRoot  string `json:"trie_root"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
}

type stateProofWire struct {
	Kind      string   `json:"kind"`
	TrieLabel string   `json:"trie_label"`
	Root      string   `json:"root"`
	Key       string   `json:"key"`
	PrevValue string   `json:"prev_value,omitempty"`
	NewValue  string   `json:"new_value,omitempty"`
	Nodes     []string `json:"nodes"`
}

// GetStateProofs replays actions (in order) against the service: the
// service clones each referenced trie's root, executes the actions in
// order against it, then reverts every touched trie's root once the
// response is built.
func (c *Client) GetStateProofs(ctx context.Context, actions []Action) ([]StateProof, error) {
	req := struct {
		Actions []actionWire `json:"actions"`
	}{Actions: make([]actionWire, len(actions))}

	for i, a := range actions {
		req.Actions[i] = actionWire{
			Kind:      a.Kind,
			TrieLabel: a.TrieLabel.String(),
			TrieRoot:  a.TrieRoot.String(),
			Key:       a.Key.String(),
		}
		if a.Kind == "write" {
			req.Actions[i].Value = a.Value.String()
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: trieservice: encode batch request: %v", herr.Input, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_state_proofs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: trieservice: build request: %v", herr.Fetch, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: trieservice: get_state_proofs: %v", herr.Fetch, err)
	}
	defer resp.Body.Close()

	var out struct {
		StateProofs []stateProofWire `json:"state_proofs"`
		Error       string           `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: trieservice: decode response: %v", herr.Fetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: trieservice: get_state_proofs: %s", herr.Fetch, out.Error)
	}

	proofs := make([]StateProof, len(out.StateProofs))
	for i, w := range out.StateProofs {
		label, err := field.ParseHex(w.TrieLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: trieservice: trie_label: %v", herr.Fetch, err)
		}
		root, err := field.ParseHex(w.Root)
		if err != nil {
			return nil, fmt.Errorf("%w: trieservice: root: %v", herr.Fetch, err)
		}
		key, err := field.ParseHex(w.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: trieservice: key: %v", herr.Fetch, err)
		}
		var prev, next field.F
		if w.PrevValue != "" {
			if prev, err = field.ParseHex(w.PrevValue); err != nil {
				return nil, fmt.Errorf("%w: trieservice: prev_value: %v", herr.Fetch, err)
			}
		}
		if w.NewValue != "" {
			if next, err = field.ParseHex(w.NewValue); err != nil {
				return nil, fmt.Errorf("%w: trieservice: new_value: %v", herr.Fetch, err)
			}
		}

		nodes := make([]kvtrie.Node, len(w.Nodes))
		for j, ns := range w.Nodes {
			raw, err := hex.DecodeString(ns)
			if err != nil {
				return nil, fmt.Errorf("%w: trieservice: decode node %d: %v", herr.Fetch, j, err)
			}
			n, err := kvtrie.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: trieservice: decode node %d: %v", herr.Trie, j, err)
			}
			nodes[j] = n
		}

		proofs[i] = StateProof{
			Kind:      w.Kind,
			TrieLabel: label,
			Proof:     kvtrie.Proof{Root: root, Key: key, Nodes: nodes},
			PrevValue: prev,
			NewValue:  next,
		}
	}
	return proofs, nil
}
