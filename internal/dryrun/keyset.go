// Package dryrun implements the dry-run pass's syscall handler relay
// (spec.md §4.D): family dispatch by (selector, contract_address), best-effort
// value resolution, and key-set recording that becomes the Fetcher's input.
// Grounded on original_source/cairo_vm_hints/src/syscall_handler/evm/dryrun's
// CallContractHandler and crates/dry_hint_processor/src/syscall_handler's
// per-group relay (the key_set: HashSet<DryRunKey> field and its per-family
// insert calls).
package dryrun

import (
	"sync"

	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/witness"
)

// KeySet accumulates every distinct call key the dry-run pass observes,
// mirroring CallContractHandler's HashSet<DryRunKey>. It is safe for
// concurrent inserts, although spec.md §5 schedules handlers serially
// in-pass and the orchestrator gives each dry pass its own KeySet.
type KeySet struct {
	mu   sync.Mutex
	keys map[syscallkey.Key]struct{}
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{keys: map[syscallkey.Key]struct{}{}}
}

// Insert records k, returning whether it was newly added.
func (s *KeySet) Insert(k syscallkey.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

// Keys returns every key recorded so far.
func (s *KeySet) Keys() []syscallkey.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]syscallkey.Key, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}

// ToRequestKeys projects the EVM-family subset of the key set into the
// witness Fetcher's input shape (Starknet and KV-trie keys are served by
// different collaborators — starknet_getStorageProof and the trie service —
// and are not part of the EVM witness bundle).
func (s *KeySet) ToRequestKeys() *witness.RequestKeys {
	rk := witness.NewRequestKeys()
	for _, k := range s.Keys() {
		switch k.Kind {
		case syscallkey.KindHeader:
			rk.Headers[k.Header] = struct{}{}
		case syscallkey.KindAccount:
			rk.Accounts[k.Account] = struct{}{}
			rk.Headers[k.Account.Header()] = struct{}{}
		case syscallkey.KindStorage:
			rk.Storages[k.Storage] = struct{}{}
			rk.Accounts[k.Storage.Account()] = struct{}{}
			rk.Headers[k.Storage.Header()] = struct{}{}
		case syscallkey.KindTransaction:
			rk.Transactions[k.Transaction] = struct{}{}
			rk.Headers[k.Transaction.Header()] = struct{}{}
		case syscallkey.KindReceipt:
			rk.Receipts[k.Receipt] = struct{}{}
			rk.Headers[k.Receipt.Header()] = struct{}{}
		}
	}
	return rk
}
