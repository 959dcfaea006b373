package families

import (
	"context"
	"math/big"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/selectors"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Account handles the EVM Account family: same key reconstruction as
// internal/dryrun/families.Account, resolved through the memorizer instead
// of a live eth_getProof call.
func Account(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	address := addressFromField(call.Calldata[2])

	key := syscallkey.Account(witness.AccountKey{ChainID: chain, BlockNumber: blockNum.Uint64(), Address: address})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	if call.Selector >= uint64(selectors.AccountCount) || int(call.Selector) >= len(rec.Values) {
		return vm.Result{}, selectorError("sound", "account", call.Selector)
	}
	return vm.Result{Data: rec.Values[call.Selector : call.Selector+1]}, nil
}
