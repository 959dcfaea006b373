package dryrun

import (
	"context"
	"fmt"
	"sync"

	"github.com/hdp-go/hdp/internal/dryrun/families"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// TrieWrite is one staged write the KV-trie family recorded during this
// dry-run pass, kept in memory rather than committed so the pass stays
// read-only against the trie service (spec.md §4.D: "dry run simulates
// Write locally; the trie service only ever sees the sound run's commits").
type TrieWrite struct {
	TrieRoot field.F
	Label    field.F
	Key      field.F
	Value    field.F
}

// TrieRead is one (trie_root, label, key) read the handler forwarded to the
// trie service because no staged write shadowed it, kept so the orchestrator
// can replay the exact same reads through the service's batch endpoint and
// obtain proofs for the sound run's memorizer.
type TrieRead struct {
	TrieRoot field.F
	Label    field.F
	Key      field.F
}

// CallContractHandler is the dry-run pass's syscall relay: it dispatches each
// VM call to the family responsible for its (Group, Family) pair, recording
// every distinct call into Keys and staging KV-trie writes locally. Grounded
// on original_source/crates/dry_hint_processor/src/syscall_handler's
// CallContractHandlerRelay and evm::CallContractHandler.
type CallContractHandler struct {
	EVM      rpcclient.EVMClient
	Starknet rpcclient.StarknetClient
	Trie     TrieClient
	Keys     *KeySet

	mu       sync.Mutex
	writes   map[field.F]map[[2]field.F]field.F // label -> {root,key} -> value, most recent staged write
	writeLog []TrieWrite
	readLog  []TrieRead
}

// NewCallContractHandler builds a handler ready to relay one program's calls.
func NewCallContractHandler(evm rpcclient.EVMClient, starknet rpcclient.StarknetClient, trie TrieClient) *CallContractHandler {
	return &CallContractHandler{
		EVM:      evm,
		Starknet: starknet,
		Trie:     trie,
		Keys:     NewKeySet(),
		writes:   map[field.F]map[[2]field.F]field.F{},
	}
}

// WriteLog returns every staged KV-trie write this handler has recorded, in
// the order they occurred, for the orchestrator to hand to the trie service
// as part of the sound run's preparatory batch.
func (h *CallContractHandler) WriteLog() []TrieWrite {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TrieWrite, len(h.writeLog))
	copy(out, h.writeLog)
	return out
}

// ReadLog returns every trie-service read this handler forwarded (i.e. every
// Read not shadowed by an earlier staged write in this pass), in the order
// they occurred.
func (h *CallContractHandler) ReadLog() []TrieRead {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TrieRead, len(h.readLog))
	copy(out, h.readLog)
	return out
}

// RecordRead appends a forwarded read to the audit log. It implements
// families.Recorder.
func (h *CallContractHandler) RecordRead(trieRoot, label, key field.F) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readLog = append(h.readLog, TrieRead{TrieRoot: trieRoot, Label: label, Key: key})
}

// StagedRead returns a previously staged write for (label, key) if one
// exists, mirroring the handler's local HashMap<prefixed_key, value> that a
// later Read on the same key must see before falling through to the trie
// service (spec.md §4.D). It implements families.Recorder.
func (h *CallContractHandler) StagedRead(label, key field.F) (field.F, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byKey, ok := h.writes[label]
	if !ok {
		return field.F{}, false
	}
	for k, v := range byKey {
		if k[1].Equal(key) {
			return v, true
		}
	}
	return field.F{}, false
}

// StageWrite records a write locally and appends it to the audit log. It
// implements families.Recorder.
func (h *CallContractHandler) StageWrite(trieRoot, label, key, value field.F) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byKey, ok := h.writes[label]
	if !ok {
		byKey = map[[2]field.F]field.F{}
		h.writes[label] = byKey
	}
	byKey[[2]field.F{trieRoot, key}] = value
	h.writeLog = append(h.writeLog, TrieWrite{TrieRoot: trieRoot, Label: label, Key: key, Value: value})
}

// Insert records k into the key set, implementing families.Recorder.
func (h *CallContractHandler) Insert(k syscallkey.Key) bool {
	return h.Keys.Insert(k)
}

func (h *CallContractHandler) deps() families.Deps {
	return families.Deps{EVM: h.EVM, Starknet: h.Starknet, Trie: h.Trie, Keys: h}
}

// Handle implements vm.Handler, dispatching by Group then Family.
func (h *CallContractHandler) Handle(ctx context.Context, call vm.Call) (vm.Result, error) {
	d := h.deps()
	switch call.Group {
	case vm.GroupEVM:
		return families.DispatchEVM(ctx, d, call)
	case vm.GroupStarknet:
		return families.DispatchStarknet(ctx, d, call)
	case vm.GroupKVTrie:
		return families.DispatchKVTrie(ctx, d, call)
	case vm.GroupUnconstrained:
		return families.DispatchUnconstrained(ctx, d, call)
	case vm.GroupDebug:
		return families.Debug(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: dryrun: unknown group %s", herr.Input, call.Group)
	}
}
