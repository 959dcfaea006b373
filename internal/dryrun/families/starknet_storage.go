package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// StarknetStorage handles the Starknet Storage family: record the
// (chain, block, contract, slot) key, call starknet_getStorageProof
// (Starknet's counterpart to eth_getStorageAt plus eth_getProof in one call),
// and return that proof's global_roots value, not the slot's stored value.
func StarknetStorage(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 4); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockNum := blockNumberFromField(call.Calldata[1])
	contract := call.Calldata[2]
	slot := call.Calldata[3]

	key := syscallkey.StarknetStorageKey{ChainID: chain, BlockNumber: blockNum, Contract: contract, Slot: slot}
	d.Keys.Insert(syscallkey.StarknetStor(key))
	d.Keys.Insert(syscallkey.Starknet(syscallkey.StarknetHeaderKey{ChainID: chain, BlockNumber: blockNum}))

	proof, err := d.Starknet.StorageProof(ctx, blockNum, contract.String(), slot.String())
	if err != nil {
		return vm.Result{}, err
	}
	root, err := field.ParseHex(proof.GlobalRoots)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: []field.F{root}}, nil
}
