package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/vm"
)

// Bytecode handles the Unconstrained family's only member. Unconstrained
// values carry no root commitment for the sound run to verify against, so
// unlike every other family this one still performs a live eth_getCode call
// rather than a memorizer lookup — the same trust boundary the dry run
// crosses, just exercised a second time.
func Bytecode(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	address := addressFromField(call.Calldata[2])

	code, err := d.EVM.CodeAt(ctx, address, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: hints.ChunkBytesLE(code)}, nil
}
