package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Bytecode handles the Unconstrained family's only member: fetching a
// contract's bytecode via eth_getCode. Unconstrained values are never
// included in the proof bundle (they carry no root commitment the VM can
// verify against), so the call is still recorded for header-dependency
// bookkeeping but is not added to the witness fetcher's request keys.
func Bytecode(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	address := addressFromField(call.Calldata[2])

	d.Keys.Insert(syscallkey.Header(witness.HeaderKey{ChainID: chain, BlockNumber: blockNum.Uint64()}))

	code, err := d.EVM.CodeAt(ctx, address, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: hints.ChunkBytesLE(code)}, nil
}
