// Package families implements the dry-run pass's per-(group,family) syscall
// handlers (spec.md §4.D): EVM's Header/Account/Storage/Transaction/Receipt
// group, Starknet's Header/Storage group, the KV-trie auxiliary group
// (Label/Read/Write), and the Unconstrained/Bytecode group. Each handler
// fetches (or simulates) a value, records the call into the key set the
// orchestrator later hands to the witness fetcher, and returns the felts the
// calling program expects back. Grounded on
// original_source/crates/dry_hint_processor/src/syscall_handler's per-family
// execute() arms.
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

// Calldata layout (by group/family), matching what internal/vm.Call carries
// for each family handled here: every call's first two felts are always
// (chain_id, block_number) except the KV-trie group, which has no chain.
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

// TrieClient is the KV-trie service boundary this package needs: Read and
// RootNodeIdx. internal/dryrun.TrieClient satisfies this structurally.
type TrieClient interface {
	Read(ctx context.Context, label, key field.F) (field.F, error)
	RootNodeIdx(ctx context.Context, label field.F) (uint64, error)
}

// Recorder is the key-set-and-staged-write side of the dry-run handler.
// internal/dryrun.CallContractHandler satisfies this structurally.
type Recorder interface {
	Insert(k syscallkey.Key) bool
	StagedRead(label, key field.F) (field.F, bool)
	StageWrite(trieRoot, label, key, value field.F)
	RecordRead(trieRoot, label, key field.F)
}

// Deps bundles every collaborator a family handler may need.
type Deps struct {
	EVM      rpcclient.EVMClient
	Starknet rpcclient.StarknetClient
	Trie     TrieClient
	Keys     Recorder
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
		return vm.Result{}, fmt.Errorf("%w: dryrun: unknown evm family %d", herr.Input, call.Family)
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
		return vm.Result{}, fmt.Errorf("%w: dryrun: unknown starknet family %d", herr.Input, call.Family)
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
		return vm.Result{}, fmt.Errorf("%w: dryrun: unknown kv-trie family %d", herr.Input, call.Family)
	}
}

// DispatchUnconstrained routes an Unconstrained-group call to its family
// handler.
func DispatchUnconstrained(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	switch call.Family {
	case FamilyBytecode:
		return Bytecode(ctx, d, call)
	default:
		return vm.Result{}, fmt.Errorf("%w: dryrun: unknown unconstrained family %d", herr.Input, call.Family)
	}
}

func addressFromField(f field.F) common.Address {
	b := f.Bytes32()
	var a common.Address
	copy(a[:], b[12:])
	return a
}

func hashFromField(f field.F) common.Hash {
	return common.Hash(f.Bytes32())
}

func requireCalldata(call vm.Call, n int) error {
	if len(call.Calldata) < n {
		return fmt.Errorf("%w: dryrun: expected at least %d calldata felts, got %d", herr.Input, n, len(call.Calldata))
	}
	return nil
}

// selectorError reports an unrecognized function-id selector within a known
// family, mirroring the original's InvalidSyscallInput on an unmatched
// FunctionId arm.
func selectorError(pass, family string, selector uint64) error {
	return fmt.Errorf("%w: %s: unknown %s selector %d", herr.Input, pass, family, selector)
}
