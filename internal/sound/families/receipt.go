package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Receipt handles the EVM Receipt family: returns the memorized chunked RLP
// for (chain, block, tx_index).
func Receipt(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	txIndex := call.Calldata[2].Bytes32()
	txIdx := new(big.Int).SetBytes(txIndex[:]).Uint64()

	key := syscallkey.Receipt(witness.ReceiptKey{ChainID: chain, BlockNumber: blockNum.Uint64(), TransactionIndex: txIdx})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: rec.Values}, nil
}
