package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// TrieLabel handles the KV-trie auxiliary Label family: it records the label
// itself as a key in the dry run's key set and echoes the label
// back, matching the injected-state handler's Label selector which exists
// only to let a program assert which labeled trie it intends to address.
func TrieLabel(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 1); err != nil {
		return vm.Result{}, err
	}
	label := call.Calldata[0]
	d.Keys.Insert(syscallkey.TrieLabel(label))
	return vm.Result{Data: []field.F{label}}, nil
}

// TrieRead handles the KV-trie auxiliary Read family: a staged write from an
// earlier Write in this same pass shadows the trie service's committed
// value, per spec.md §4.D's "a later Read on the same key returns the
// staged value before consulting the trie service".
func TrieRead(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	trieRoot := call.Calldata[0]
	label := call.Calldata[1]
	key := call.Calldata[2]

	d.Keys.Insert(syscallkey.TrieLabel(label))
	d.Keys.Insert(syscallkey.TrieEntry(syscallkey.TrieEntryKey{Label: label, Key: key}))

	if staged, ok := d.Keys.StagedRead(label, key); ok {
		return vm.Result{Data: []field.F{staged}}, nil
	}
	value, err := d.Trie.Read(ctx, label, key)
	if err != nil {
		return vm.Result{}, err
	}
	d.Keys.RecordRead(trieRoot, label, key)
	return vm.Result{Data: []field.F{value}}, nil
}

// TrieWrite handles the KV-trie auxiliary Write family: the dry-run pass
// never commits to the trie service directly (only the sound run's
// orchestrated batch does); it stages the write locally so a subsequent
// Read in this same pass observes it, and records the write in the audit
// log the orchestrator replays against the trie service ahead of the sound
// run.
func TrieWrite(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 4); err != nil {
		return vm.Result{}, err
	}
	trieRoot := call.Calldata[0]
	label := call.Calldata[1]
	key := call.Calldata[2]
	value := call.Calldata[3]

	d.Keys.Insert(syscallkey.TrieLabel(label))
	d.Keys.StageWrite(trieRoot, label, key, value)
	return vm.Result{Data: []field.F{value}}, nil
}
