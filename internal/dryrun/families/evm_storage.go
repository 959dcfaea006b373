package families

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/hints"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Storage handles the EVM Storage family. A storage slot arrives as two
// field halves (slot_high, slot_low); only the low 16 bytes of each half
// survive into the 32-byte trie key, the truncation rule
// keys::storage::Key's CairoKey conversion applies
// (`storage_slot_high.to_bytes_be()[16..]` concatenated with the low half's
// own low bytes) — this is Open Question 2, resolved in favor of matching
// the original byte-for-byte rather than using the full 256 bits of either
// half.
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

	key := witness.StorageKey{ChainID: chain, BlockNumber: blockNum.Uint64(), Address: address, Slot: slot}
	d.Keys.Insert(syscallkey.Storage(key))
	d.Keys.Insert(syscallkey.Account(key.Account()))
	d.Keys.Insert(syscallkey.Header(key.Header()))

	value, err := d.EVM.StorageAt(ctx, address, slot, blockNum)
	if err != nil {
		return vm.Result{}, err
	}
	var buf [32]byte
	copy(buf[32-len(value):], value)
	high, low := hints.SplitUint256(buf)
	return vm.Result{Data: []field.F{high, low}}, nil
}
