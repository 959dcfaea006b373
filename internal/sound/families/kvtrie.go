package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// TrieLabel handles the KV-trie auxiliary Label family: echoes the label
// back, same as the dry-run pass — it carries no value to verify.
func TrieLabel(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 1); err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: []field.F{call.Calldata[0]}}, nil
}

// TrieRead handles the KV-trie auxiliary Read family: resolves the
// (label, key) pair through the memorizer, populated ahead of time from the
// orchestrator's pre-sound-run trie batch (spec.md §4.F).
func TrieRead(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	label := call.Calldata[1]
	key := call.Calldata[2]

	entry := syscallkey.TrieEntry(syscallkey.TrieEntryKey{Label: label, Key: key})
	rec, err := d.Memorizer.Lookup(entry)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: rec.Values}, nil
}

// TrieWrite handles the KV-trie auxiliary Write family: the value to commit
// arrives as an input, already verified and applied by the orchestrator's
// batch ahead of this pass, so the handler only echoes it back.
func TrieWrite(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 4); err != nil {
		return vm.Result{}, err
	}
	value := call.Calldata[3]
	return vm.Result{Data: []field.F{value}}, nil
}
