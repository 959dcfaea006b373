package kvtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdp-go/hdp/internal/field"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Scenario 1: basic write + read (spec.md §8).
func TestBasicWriteRead(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	changed, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, tr.Root().IsZero())

	v, err := tr.Get(field.FromUint64(0x1))
	require.NoError(t, err)
	assert.True(t, v.Equal(field.FromUint64(0x1)))
}

// Scenario 2: overwrite produces a different root.
func TestOverwriteChangesRoot(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	_, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)
	r1 := tr.Root()

	_, err = tr.Set(field.FromUint64(0x1), field.FromUint64(0x2))
	require.NoError(t, err)
	r2 := tr.Root()

	assert.False(t, r1.Equal(r2))
	v, err := tr.Get(field.FromUint64(0x1))
	require.NoError(t, err)
	assert.True(t, v.Equal(field.FromUint64(0x2)))
}

// Scenario 4: empty-trie read returns 0 with an empty, NonMember proof.
func TestEmptyTrieRead(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	v, err := tr.Get(field.FromUint64(0x123))
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	proof, err := tr.LeafProof(field.FromUint64(0x123))
	require.NoError(t, err)
	assert.Empty(t, proof.Nodes)

	outcome, err := VerifyProof(proof, field.Zero)
	require.NoError(t, err)
	assert.Equal(t, NonMember, outcome)
}

// Scenario 5: order independence across distinct keys.
func TestOrderIndependence(t *testing.T) {
	store1 := newTestStore(t)
	tr1 := CreateEmpty(store1)
	_, err := tr1.Set(field.FromUint64(0x10), field.FromUint64(0x3E8))
	require.NoError(t, err)
	_, err = tr1.Set(field.FromUint64(0x11), field.FromUint64(0x7D0))
	require.NoError(t, err)

	store2 := newTestStore(t)
	tr2 := CreateEmpty(store2)
	_, err = tr2.Set(field.FromUint64(0x11), field.FromUint64(0x7D0))
	require.NoError(t, err)
	_, err = tr2.Set(field.FromUint64(0x10), field.FromUint64(0x3E8))
	require.NoError(t, err)

	assert.True(t, tr1.Root().Equal(tr2.Root()))
}

// write(k, 0) on an absent key is a no-op; the root stays zero.
func TestWriteZeroOnEmptyTrieIsNoop(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	changed, err := tr.Set(field.FromUint64(0x1), field.Zero)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, tr.Root().IsZero())
}

// Duplicate (k, v) insert is idempotent: writing the same pair twice leaves
// the root unchanged between writes.
func TestDuplicateWriteIdempotent(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	_, err := tr.Set(field.FromUint64(0x5), field.FromUint64(0x9))
	require.NoError(t, err)
	r1 := tr.Root()

	changed, err := tr.Set(field.FromUint64(0x5), field.FromUint64(0x9))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, tr.Root().Equal(r1))
}

func TestWriteThenDeleteReturnsToEmpty(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	_, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)
	assert.False(t, tr.Root().IsZero())

	changed, err := tr.Set(field.FromUint64(0x1), field.Zero)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, tr.Root().IsZero())
}

func TestCommitPersistsAndReloads(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)

	_, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)
	_, err = tr.Set(field.FromUint64(0x2), field.FromUint64(0x2))
	require.NoError(t, err)
	root := tr.Root()

	_, err = tr.Commit()
	require.NoError(t, err)

	reloaded, err := LoadByRoot(store, root)
	require.NoError(t, err)
	v, err := reloaded.Get(field.FromUint64(0x2))
	require.NoError(t, err)
	assert.True(t, v.Equal(field.FromUint64(0x2)))
}

func TestMemberProofVerifies(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)
	_, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)

	proof, err := tr.LeafProof(field.FromUint64(0x1))
	require.NoError(t, err)
	require.NotEmpty(t, proof.Nodes)

	outcome, err := VerifyProof(proof, field.FromUint64(0x1))
	require.NoError(t, err)
	assert.Equal(t, Member, outcome)
}

// Non-member proof on a trie containing only one key (spec.md §8 boundary
// behavior): the single edge's first nibble differs from the query key.
func TestNonMemberProofSingleKeyTrie(t *testing.T) {
	store := newTestStore(t)
	tr := CreateEmpty(store)
	_, err := tr.Set(field.FromUint64(0x1), field.FromUint64(0x1))
	require.NoError(t, err)

	proof, err := tr.LeafProof(field.FromUint64(0x2))
	require.NoError(t, err)
	require.Len(t, proof.Nodes, 1)

	outcome, err := VerifyProof(proof, field.Zero)
	require.NoError(t, err)
	assert.Equal(t, NonMember, outcome)
}
