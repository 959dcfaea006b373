// Package sound implements the sound-run pass's syscall handler relay
// (spec.md §4.E): every call is answered from the memorizer dictionary
// populated ahead of time from a verified proof bundle, never by a live
// fetch, except for the Unconstrained group's values, which carry no root
// commitment to verify against. Grounded on
// original_source/crates/sound_hint_processor/src/syscall_handler/mod.rs's
// Memorizer{dict_ptr}/read_key and CallContractHandlerRelay.
package sound

import (
	"fmt"
	"sync"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/sound/families"
	"github.com/hdp-go/hdp/internal/syscallkey"
)

// Memorizer is the sound run's in-VM dictionary: fingerprint -> verified
// record, mirroring read_key(key, dict_manager)'s Relocatable lookup. A
// lookup miss means the bundle the dry run assembled does not cover a call
// the program actually makes — fatal, same as the original's NoValueForKey.
type Memorizer struct {
	mu      sync.RWMutex
	records map[field.F]families.Record
}

// NewMemorizer returns an empty memorizer ready to be populated by the
// orchestrator's bundle-loading phase.
func NewMemorizer() *Memorizer {
	return &Memorizer{records: map[field.F]families.Record{}}
}

// Put installs rec under key's fingerprint, overwriting any existing entry.
func (m *Memorizer) Put(key syscallkey.Key, rec families.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key.Fingerprint()] = rec
}

// Lookup resolves key to its verified record, or a Consistency error if the
// bundle never covered it — the sound-run equivalent of InvalidSyscallInput
// on a dictionary miss.
func (m *Memorizer) Lookup(key syscallkey.Key) (families.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key.Fingerprint()]
	if !ok {
		return families.Record{}, fmt.Errorf("%w: sound: no memorizer entry for call (bundle incomplete)", herr.Consistency)
	}
	return rec, nil
}
