package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// StarknetHeader handles the Starknet Header family: record the
// (chain, block) key and return the new state root, Starknet's header
// analogue of state_root (spec.md §4.D: "Starknet variants are Header=0").
func StarknetHeader(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 2); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockNumber := call.Calldata[1]
	blockNum := blockNumberFromField(blockNumber)

	key := syscallkey.StarknetHeaderKey{ChainID: chain, BlockNumber: blockNum}
	d.Keys.Insert(syscallkey.Starknet(key))

	h, err := d.Starknet.BlockWithTxHashes(ctx, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	root, err := field.ParseHex(h.NewRoot)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: []field.F{root}}, nil
}

func blockNumberFromField(f field.F) uint64 {
	b := f.Bytes32()
	var v uint64
	for i := 24; i < 32; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
