package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/selectors"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Header handles the EVM Header family: reconstructs the same HeaderKey the
// dry run derived from identical calldata, resolves it through the
// memorizer, then selects the selector's slot.
func Header(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 2); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])

	key := syscallkey.Header(witness.HeaderKey{ChainID: chain, BlockNumber: blockNum.Uint64()})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	if call.Selector >= uint64(selectors.HeaderCount) || int(call.Selector) >= len(rec.Values) {
		return vm.Result{}, selectorError("sound", "header", call.Selector)
	}
	return vm.Result{Data: rec.Values[call.Selector : call.Selector+1]}, nil
}
