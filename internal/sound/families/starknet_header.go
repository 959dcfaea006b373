package families

import (
	"context"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
)

// StarknetHeader handles the Starknet Header family: returns the memorized
// state root for (chain, block).
func StarknetHeader(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 2); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockNum := blockNumberFromField(call.Calldata[1])

	key := syscallkey.Starknet(syscallkey.StarknetHeaderKey{ChainID: chain, BlockNumber: blockNum})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: rec.Values}, nil
}

func blockNumberFromField(f field.F) uint64 {
	b := f.Bytes32()
	var v uint64
	for i := 24; i < 32; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
