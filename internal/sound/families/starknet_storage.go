package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// StarknetStorage handles the Starknet Storage family: returns the
// memorized value for (chain, block, contract, slot).
func StarknetStorage(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 4); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockNum := blockNumberFromField(call.Calldata[1])
	contract := call.Calldata[2]
	slot := call.Calldata[3]

	key := syscallkey.StarknetStor(syscallkey.StarknetStorageKey{ChainID: chain, BlockNumber: blockNum, Contract: contract, Slot: slot})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: rec.Values}, nil
}
