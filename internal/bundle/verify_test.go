package bundle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/require"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/kvtrie"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/witness"
)

// proveSecure rebuilds a one-entry secure MPT (the account/storage trie
// convention: key = keccak256(preimage)) and returns its root plus the
// inclusion proof for that one entry, mirroring internal/witness/txproof.go's
// own use of go-ethereum's trie package (build the trie, then Prove one key).
func proveSecure(t *testing.T, preimage, value []byte) (common.Hash, [][]byte) {
	t.Helper()
	db := trie.NewDatabase(memorydb.New(), nil)
	tr := trie.NewEmpty(db)

	key := crypto.Keccak256(preimage)
	require.NoError(t, tr.Update(key, value))
	root, _, err := tr.Commit(false)
	require.NoError(t, err)

	reopened, err := trie.New(trie.TrieID(root), db)
	require.NoError(t, err)

	proofDB := memorydb.New()
	require.NoError(t, reopened.Prove(key, proofDB))
	it := proofDB.NewIterator(nil, nil)
	defer it.Release()
	var nodes [][]byte
	for it.Next() {
		v := make([]byte, len(it.Value()))
		copy(v, it.Value())
		nodes = append(nodes, v)
	}
	return root, nodes
}

func TestVerifyHeadersRejectsConflictingWitnesses(t *testing.T) {
	h1 := &types.Header{Number: big.NewInt(10), Extra: []byte("a")}
	h2 := &types.Header{Number: big.NewInt(10), Extra: []byte("b")}
	rlp1, err := rlp.EncodeToBytes(h1)
	require.NoError(t, err)
	rlp2, err := rlp.EncodeToBytes(h2)
	require.NoError(t, err)

	b := Bundle{
		ChainID: chainid.EthereumMainnet,
		EVM: witness.Bundle{
			HeadersWithMMR: []witness.HeaderMmrMeta{
				{Headers: []witness.HeaderWitness{{RLP: rlp1}, {RLP: rlp2}}},
			},
		},
	}

	_, err = b.Verify()
	require.Error(t, err)
}

func TestVerifyAccountAndStorage(t *testing.T) {
	addr := common.HexToAddress("0xabc0000000000000000000000000000000000a")
	slot := common.HexToHash("0x01")

	storageValue, err := rlp.EncodeToBytes([]byte{0x2a})
	require.NoError(t, err)
	storageRoot, storageNodes := proveSecure(t, slot.Bytes(), storageValue)

	acc := rlpAccount{Nonce: 7, Balance: big.NewInt(42), Root: storageRoot, CodeHash: crypto.Keccak256(nil)}
	accVal, err := rlp.EncodeToBytes(acc)
	require.NoError(t, err)
	accRoot, accNodes := proveSecure(t, addr.Bytes(), accVal)

	header := &types.Header{Number: big.NewInt(100), Root: accRoot}
	headerRLP, err := rlp.EncodeToBytes(header)
	require.NoError(t, err)

	b := Bundle{
		ChainID: chainid.EthereumMainnet,
		EVM: witness.Bundle{
			HeadersWithMMR: []witness.HeaderMmrMeta{{Headers: []witness.HeaderWitness{{RLP: headerRLP}}}},
			Accounts: []witness.AccountWitness{{
				Address: addr,
				Proofs:  []witness.MPTProof{{BlockNumber: 100, Nodes: accNodes}},
			}},
			Storages: []witness.StorageWitness{{
				Address: addr,
				Slot:    slot,
				Proofs:  []witness.MPTProof{{BlockNumber: 100, Nodes: storageNodes}},
			}},
		},
	}

	records, err := b.Verify()
	require.NoError(t, err)
	require.Len(t, records, 3) // header, account, storage

	var sawAccount, sawStorage bool
	for _, rec := range records {
		switch rec.Key.Kind {
		case syscallkey.KindAccount:
			sawAccount = true
			require.True(t, rec.Value.Values[0].Equal(field.FromUint64(7))) // nonce
		case syscallkey.KindStorage:
			sawStorage = true
		}
	}
	require.True(t, sawAccount)
	require.True(t, sawStorage)
}

func TestVerifyTrieProofsRoundTrip(t *testing.T) {
	store, err := kvtrie.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	tr := kvtrie.CreateEmpty(store)

	label := field.FromUint64(1)
	key := field.FromUint64(2)
	value := field.FromUint64(3)
	_, err = tr.Set(key, value)
	require.NoError(t, err)

	proof, err := tr.LeafProof(key)
	require.NoError(t, err)

	b := Bundle{
		TrieProofs: []TrieStateProof{{
			Kind:      "read",
			TrieLabel: label,
			Proof:     proof,
			PrevValue: value,
			NewValue:  value,
		}},
	}

	records, err := b.Verify()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Value.Values[0].Equal(value))
}
