package families

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Storage handles the EVM Storage family. It reconstructs the slot key with
// the same truncation rule internal/dryrun/families.Storage applies (Open
// Question 2: only the low 16 bytes of each (slot_high, slot_low) half
// survive into the 32-byte trie key), so a storage call made with identical
// calldata in both passes resolves to the same memorizer fingerprint.
func Storage(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	if err := requireCalldata(call, 5); err != nil {
		return vm.Result{}, err
	}
	chain := chainid.ID(call.Calldata[0].Bytes32()[31])
	blockBytes := call.Calldata[1].Bytes32()
	blockNum := new(big.Int).SetBytes(blockBytes[:])
	address := addressFromField(call.Calldata[2])
	slotHigh := call.Calldata[3]
	slotLow := call.Calldata[4]
	slot := common.Hash(hints.StorageSlotKey(slotHigh, slotLow))

	key := syscallkey.Storage(witness.StorageKey{ChainID: chain, BlockNumber: blockNum.Uint64(), Address: address, Slot: slot})
	rec, err := d.Memorizer.Lookup(key)
	if err != nil {
		return vm.Result{}, err
	}
	return vm.Result{Data: rec.Values}, nil
}
