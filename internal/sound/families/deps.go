// Package families implements the sound-run pass's per-(group,family)
// syscall handlers (spec.md §4.E): each handler reconstructs the same call
// key the dry-run pass would have derived from identical calldata, resolves
// it through the memorizer, and extracts the selector's answer — never
// performing a live fetch, except for the Unconstrained group, which carries
// no root commitment to verify. Grounded on
// original_source/crates/sound_hint_processor/src/syscall_handler's
// per-family execute() arms.
package families

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// Family selectors, matching internal/dryrun/families's constants exactly
// (spec.md §4.E's "identical layout, identical canonicalization").
const (
	FamilyHeader      uint8 = 0
	FamilyAccount     uint8 = 1
	FamilyStorage     uint8 = 2
	FamilyTransaction uint8 = 3
	FamilyReceipt     uint8 = 4
)

const (
	FamilyStarknetHeader  uint8 = 0
	FamilyStarknetStorage uint8 = 1
)

const (
	FamilyTrieLabel uint8 = 0
	FamilyTrieRead  uint8 = 1
	FamilyTrieWrite uint8 = 2
)

const FamilyBytecode uint8 = 0

// Record is one memorizer entry: the field elements the sound run returns
// for every selector a call against this key might use. Single-selector
// families (Storage, Transaction, Receipt, Starknet, KV-trie) store their
// one answer across every index; multi-selector families (Header, Account)
// store one slot per selectors.HeaderCount / selectors.AccountCount.
type Record struct {
	Values []field.F
}

// Lookup is the memorizer boundary this package needs. internal/sound.Memorizer
// satisfies this structurally.
type Lookup interface {
	Lookup(key syscallkey.Key) (Record, error)
}

// Deps bundles every collaborator a family handler may need.
type Deps struct {
	Memorizer Lookup
	EVM       rpcclient.EVMClient // only consulted by the Unconstrained family
}

// DispatchEVM routes an EVM-group call to its family handler.
func DispatchEVM(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	switch call.Family {
	case FamilyHeader:
		return Header(ctx, d, call)
	case FamilyAccount:
		return Account(ctx, d, call)
	case FamilyStorage:
		return Storage(ctx, d, call)
	case FamilyTransaction:
		return Transaction(ctx, d, call)
	case FamilyReceipt:
		return Receipt(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: sound: unknown evm family %d", herr.Input, call.Family)
	}
}

// DispatchStarknet routes a Starknet-group call to its family handler.
func DispatchStarknet(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	switch call.Family {
	case FamilyStarknetHeader:
		return StarknetHeader(ctx, d, call)
	case FamilyStarknetStorage:
		return StarknetStorage(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: sound: unknown starknet family %d", herr.Input, call.Family)
	}
}

// DispatchKVTrie routes a KV-trie auxiliary call to its family handler.
func DispatchKVTrie(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	switch call.Family {
	case FamilyTrieLabel:
		return TrieLabel(ctx, d, call)
	case FamilyTrieRead:
		return TrieRead(ctx, d, call)
	case FamilyTrieWrite:
		return TrieWrite(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: sound: unknown kv-trie family %d", herr.Input, call.Family)
	}
}

// DispatchUnconstrained routes an Unconstrained-group call to its family
// handler.
func DispatchUnconstrained(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	switch call.Family {
	case FamilyBytecode:
		return Bytecode(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: sound: unknown unconstrained family %d", herr.Input, call.Family)
	}
}

func addressFromField(f field.F) common.Address {
	b := f.Bytes32()
	var a common.Address
	copy(a[:], b[12:])
	return a
}

func requireCalldata(call vm.Call, n int) error {
	if len(call.Calldata) < n {
		return fmt.Errorf("%w: sound: expected at least %d calldata felts, got %d", herr.Input, n, len(call.Calldata))
	}
	return nil
}

func selectorError(pass, family string, selector uint64) error {
	return fmt.Errorf("%w: %s: unknown %s selector %d", herr.Input, pass, family, selector)
}
