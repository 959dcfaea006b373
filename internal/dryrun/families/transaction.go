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

// Transaction handles the EVM Transaction family: record the
// (chain, block, tx_index) key and return the transaction's RLP, chunked the
// way the hint library expects (Open Question 1's resolved byte-chunking
// rule, internal/hints.ChunkBytesLE).
func Transaction(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	txIndex := call.Calldata[2].Bytes32()
	txIdx := new(big.Int).SetBytes(txIndex[:]).Uint64()

	key := witness.TransactionKey{ChainID: chain, BlockNumber: blockNum.Uint64(), TransactionIndex: txIdx}
	d.Keys.Insert(syscallkey.Transaction(key))
	d.Keys.Insert(syscallkey.Header(key.Header()))

	block, err := d.EVM.BlockByNumber(ctx, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	txs := block.Transactions()
	if txIdx >= uint64(len(txs)) {
		return vm.Result{}, selectorError("dryrun", "transaction", call.Selector)
	}
	rlp, err := txs[txIdx].MarshalBinary()
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: hints.ChunkBytesLE(rlp)}, nil
}
