package sound

import (
	"context"
	"fmt"

	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/sound/families"
	"github.com/hdp-go/hdp/internal/vm"
)

// CallContractHandler is the sound-run pass's syscall relay: it reconstructs
// the same call key the dry run would have (spec.md §4.E's "derives the
// same key as the dry-run handler"), resolves it through the memorizer, and
// extracts the selector's answer. It never talks to a chain RPC endpoint
// except for the Unconstrained group, which is excluded from the bundle by
// design. Grounded on CallContractHandlerRelay's per-group dispatch.
type CallContractHandler struct {
	Memorizer *Memorizer
	EVM       rpcclient.EVMClient
}

// NewCallContractHandler builds a handler against a populated memorizer.
func NewCallContractHandler(memorizer *Memorizer, evm rpcclient.EVMClient) *CallContractHandler {
	return &CallContractHandler{Memorizer: memorizer, EVM: evm}
}

func (h *CallContractHandler) deps() families.Deps {
	return families.Deps{Memorizer: h.Memorizer, EVM: h.EVM}
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
		return vm.Result{}, fmt.Errorf("%w: sound: unknown group %s", herr.Input, call.Group)
	}
}
