package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Receipt handles the EVM Receipt family: record the
// (chain, block, tx_index) key and return the receipt's RLP, chunked the
// same way Transaction does.
func Receipt(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	txIndex := call.Calldata[2].Bytes32()
	txIdx := new(big.Int).SetBytes(txIndex[:]).Uint64()

	key := witness.ReceiptKey{ChainID: chain, BlockNumber: blockNum.Uint64(), TransactionIndex: txIdx}
	d.Keys.Insert(syscallkey.Receipt(key))
	d.Keys.Insert(syscallkey.Header(key.Header()))

	receipts, err := d.EVM.BlockReceipts(ctx, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	if txIdx >= uint64(len(receipts)) {
		return vm.Result{}, selectorError("dryrun", "receipt", call.Selector)
	}
	rlp, err := receipts[txIdx].MarshalBinary()
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: hints.ChunkBytesLE(rlp)}, nil
}
