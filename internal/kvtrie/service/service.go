// Package service is the HTTP wrapper around the KV-Trie Engine
// (internal/kvtrie), grounded on original_source/crates/state_server/src/lib.rs's
// route table and batch-revert semantics (spec.md §4.F, §6).
package service

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/kvtrie"
)

// Service holds one open Trie (and its Store) per label, guarded by a mutex
// per spec.md §5's "concurrent map that is safe to iterate under concurrent
// mutation" requirement. Unlike the original's DashMap, a single RWMutex is
// enough here since every handler already serializes per-label writes
// through labelLock.
type Service struct {
	dir string

	mu     sync.RWMutex
	tries  map[string]*kvtrie.Trie
	stores map[string]*kvtrie.Store

	labelLocks sync.Map // label string -> *sync.Mutex
}

// New builds a Service persisting each label's database under dir, per
// spec.md §6's "<root>/<label>.db" layout.
func New(dir string) *Service {
	return &Service{dir: dir, tries: map[string]*kvtrie.Trie{}, stores: map[string]*kvtrie.Store{}}
}

// Router mounts the service's HTTP surface.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/create_trie", s.handleCreateTrie)
	r.Post("/get_state_proofs", s.handleGetStateProofs)
	r.Get("/read/{label}", s.handleReadOne)
	r.Post("/write", s.handleWriteOne)
	r.Get("/get_trie_root_node_idx", s.handleRootNodeIdx)
	return r
}

func (s *Service) labelLock(label string) *sync.Mutex {
	v, _ := s.labelLocks.LoadOrStore(label, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Service) trieFor(label field.F) (*kvtrie.Trie, error) {
	key := label.String()
	s.mu.RLock()
	t, ok := s.tries[key]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tries[key]; ok {
		return t, nil
	}
	store, err := kvtrie.Open(filepath.Join(s.dir, key+".db"))
	if err != nil {
		return nil, fmt.Errorf("service: open store for label %s: %w", key, err)
	}
	t = kvtrie.CreateEmpty(store)
	s.stores[key] = store
	s.tries[key] = t
	return t, nil
}

type actionWire struct {
	Kind      string `json:"kind"`
	TrieLabel string `json:"trie_label"`
	TrieRoot  string `json:"trie_root"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
}

type batchRequest struct {
	Actions []actionWire `json:"actions"`
}

// StateProof is one result entry in a /get_state_proofs response.
type StateProof struct {
	Kind      string        `json:"kind"`
	TrieLabel field.F       `json:"-"`
	Proof     kvtrie.Proof  `json:"-"`
	PrevValue field.F       `json:"-"`
	NewValue  field.F       `json:"-"`
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

// handleGetStateProofs implements the batch semantics of spec.md §4.F: clone
// each referenced trie's root, execute actions in order (mutating in-memory
// state for subsequent actions), then revert every touched trie to its
// pre-batch root once the response is assembled. Persistence of intermediate
// nodes is fine — only the root pointer is rolled back.
func (s *Service) handleGetStateProofs(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decode batch: %v", herr.Input, err))
		return
	}

	batchID := uuid.New()
	originalRoots := map[string]field.F{}
	touched := map[string]*kvtrie.Trie{}
	var writtenLeaves []struct {
		trie *kvtrie.Trie
		key  field.F
	}

	results := make([]StateProof, 0, len(req.Actions))

	for _, aw := range req.Actions {
		label, err := field.ParseHex(aw.TrieLabel)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: trie_label: %v", herr.Input, err))
			return
		}
		key, err := field.ParseHex(aw.Key)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: key: %v", herr.Input, err))
			return
		}

		t, err := s.trieFor(label)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		labelStr := label.String()
		if _, ok := originalRoots[labelStr]; !ok {
			originalRoots[labelStr] = t.Root()
			touched[labelStr] = t
		}

		switch aw.Kind {
		case "read":
			prev, err := t.Get(key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			proof, err := t.LeafProof(key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			results = append(results, StateProof{Kind: "read", TrieLabel: label, Proof: proof, PrevValue: prev, NewValue: prev})
		case "write":
			value, err := field.ParseHex(aw.Value)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("%w: value: %v", herr.Input, err))
				return
			}
			prev, err := t.Get(key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			if _, err := t.Set(key, value); err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			if _, err := t.Commit(); err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			proof, err := t.LeafProof(key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
				return
			}
			results = append(results, StateProof{Kind: "write", TrieLabel: label, Proof: proof, PrevValue: prev, NewValue: value})
			writtenLeaves = append(writtenLeaves, struct {
				trie *kvtrie.Trie
				key  field.F
			}{t, key})
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: unknown action kind %q", herr.Input, aw.Kind))
			return
		}
	}

	// Post-batch leaf cleanup (SPEC_FULL.md §3): drop the append-only
	// tracking rows this batch wrote before reverting root pointers, so the
	// leafs log never carries rows orphaned by the revert below.
	for _, wl := range writtenLeaves {
		if err := wl.trie.StoreHandle().DeleteLeaf(wl.key); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: leaf cleanup: %v", herr.Trie, err))
			return
		}
	}

	// Revert every touched trie's root pointer to its pre-batch value. The
	// service is stateless across batches at the root level.
	for labelStr, original := range originalRoots {
		t := touched[labelStr]
		reverted, err := kvtrie.LoadByRoot(storeOf(t), original)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: revert: %v", herr.Trie, err))
			return
		}
		s.mu.Lock()
		s.tries[labelStr] = reverted
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":     batchID.String(),
		"state_proofs": toWireProofs(results),
	})
}

func (s *Service) handleCreateTrie(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	label, err := field.ParseHex(body.Label)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	if _, err := s.trieFor(label); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"label": label.String()})
}

func (s *Service) handleReadOne(w http.ResponseWriter, r *http.Request) {
	labelHex := chi.URLParam(r, "label")
	keyHex := r.URL.Query().Get("key")
	label, err := field.ParseHex(labelHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	key, err := field.ParseHex(keyHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	t, err := s.trieFor(label)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	v, err := t.Get(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": v.String()})
}

func (s *Service) handleWriteOne(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	label, err := field.ParseHex(body.Label)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	lock := s.labelLock(label.String())
	lock.Lock()
	defer lock.Unlock()

	key, err := field.ParseHex(body.Key)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	value, err := field.ParseHex(body.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	t, err := s.trieFor(label)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := t.Set(key, value); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
		return
	}
	if _, err := t.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"root": t.Root().String()})
}

func (s *Service) handleRootNodeIdx(w http.ResponseWriter, r *http.Request) {
	labelHex := r.URL.Query().Get("label")
	label, err := field.ParseHex(labelHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", herr.Input, err))
		return
	}
	s.mu.RLock()
	store, ok := s.stores[label.String()]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: unknown label", herr.Input))
		return
	}
	idx, err := store.NodeIdx()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", herr.Trie, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"root_node_idx": idx})
}

func storeOf(t *kvtrie.Trie) *kvtrie.Store {
	return t.StoreHandle()
}

func toWireProofs(results []StateProof) []stateProofWire {
	out := make([]stateProofWire, 0, len(results))
	for _, r := range results {
		nodes := make([]string, len(r.Proof.Nodes))
		for i, n := range r.Proof.Nodes {
			nodes[i] = hex.EncodeToString(n.Encode())
		}
		out = append(out, stateProofWire{
			Kind:      r.Kind,
			TrieLabel: r.TrieLabel.String(),
			Root:      r.Proof.Root.String(),
			Key:       r.Proof.Key.String(),
			PrevValue: r.PrevValue.String(),
			NewValue:  r.NewValue.String(),
			Nodes:     nodes,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
