package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/selectors"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Header handles the EVM Header family: record the (chain, block) key, then
// answer whichever header field the selector names, mirroring
// header::HeaderCallHandler's key_set insert followed by dispatch on
// FunctionId.
func Header(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 2); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockNumber := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockNumber[:])

	key := witness.HeaderKey{ChainID: chain, BlockNumber: blockNum.Uint64()}
	d.Keys.Insert(syscallkey.Header(key))

	h, err := d.EVM.HeaderByNumber(ctx, blockNum)
	if err != nil {
		return vm.Result{}, err
	}

	switch call.Selector {
	case selectors.HeaderNumber:
		return vm.Result{Data: []field.F{field.FromUint64(h.Number.Uint64())}}, nil
	case selectors.HeaderHash:
		return vm.Result{Data: []field.F{field.FromBytes32([32]byte(h.Hash()))}}, nil
	case selectors.HeaderStateRoot:
		return vm.Result{Data: []field.F{field.FromBytes32([32]byte(h.Root))}}, nil
	case selectors.HeaderParentHash:
		return vm.Result{Data: []field.F{field.FromBytes32([32]byte(h.ParentHash))}}, nil
	default:
		return vm.Result{}, selectorError("dryrun", "header", call.Selector)
	}
}
