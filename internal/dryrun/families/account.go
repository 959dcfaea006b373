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

// Account handles the EVM Account family: nonce, balance, code hash, and
// storage root lookups all key off the same (chain, block, address) triple,
// so one handler covers every selector, matching account::AccountCallHandler
// dispatching on FunctionId after the common key_set insert.
func Account(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 3); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	address := addressFromField(call.Calldata[2])

	key := witness.AccountKey{ChainID: chain, BlockNumber: blockNum.Uint64(), Address: address}
	d.Keys.Insert(syscallkey.Account(key))
	d.Keys.Insert(syscallkey.Header(key.Header()))

	proof, err := d.EVM.GetProof(ctx, address, nil, blockNum)
	if err != nil {
		return vm.Result{}, err
	}

	switch call.Selector {
	case selectors.AccountNonce:
		return vm.Result{Data: []field.F{field.FromUint64(proof.Nonce)}}, nil
	case selectors.AccountBalance:
		return vm.Result{Data: []field.F{field.FromBigInt(proof.Balance)}}, nil
	case selectors.AccountStateRoot:
		return vm.Result{Data: []field.F{field.FromBytes32([32]byte(proof.StorageHash))}}, nil
	case selectors.AccountCodeHash:
		return vm.Result{Data: []field.F{field.FromBytes32([32]byte(proof.CodeHash))}}, nil
	default:
		return vm.Result{}, selectorError("dryrun", "account", call.Selector)
	}
}
