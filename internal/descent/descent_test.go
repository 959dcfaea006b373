package descent

import (
	"math/big"
	"testing"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/trienode"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateTreeSingleModification(t *testing.T) {
	value := field.FromUint64(42)
	tree := BuildUpdateTree(3, []KeyLeaf{{Index: big.NewInt(5), Value: value}})
	require.NotNil(t, tree)

	require.Nil(t, tree.Left)
	require.NotNil(t, tree.Right)

	lvl1 := tree.Right
	require.NotNil(t, lvl1.Left)
	require.Nil(t, lvl1.Right)

	lvl2 := lvl1.Left
	require.Nil(t, lvl2.Left)
	require.NotNil(t, lvl2.Right)

	leaf := lvl2.Right
	require.True(t, leaf.IsLeaf)
	require.NotNil(t, leaf.Leaf)
	require.True(t, leaf.Leaf.Equal(value))
}

func TestBuildUpdateTreeEmpty(t *testing.T) {
	require.Nil(t, BuildUpdateTree(3, nil))
}

func TestCanonicEdgeAndBinary(t *testing.T) {
	l := field.FromUint64(100)
	r := field.FromUint64(200)
	rootHash := field.FromUint64(1)
	edgeChild := field.FromUint64(300)
	pathVal := field.FromUint64(0b10)

	pre := Preimage{
		rootHash: {IsEdge: false, Left: l, Right: r},
		l:        {IsEdge: true, Length: 2, Path: pathVal, Child: edgeChild},
	}

	edgeTriplet := Canonic(pre, l)
	require.Equal(t, uint64(2), edgeTriplet.Length)
	require.True(t, edgeTriplet.Path.Equal(pathVal))
	require.True(t, edgeTriplet.Hash.Equal(edgeChild))

	// r has no preimage entry, so it canonicalizes to the binary-node
	// triplet (0, 0, r) — it is still looked up directly as a node hash.
	binTriplet := Canonic(pre, r)
	require.Equal(t, uint64(0), binTriplet.Length)
	require.True(t, binTriplet.Hash.Equal(r))
}

func TestGetChildrenBinaryNode(t *testing.T) {
	l := field.FromUint64(10)
	r := field.FromUint64(20)
	rootHash := field.FromUint64(99)
	pre := Preimage{rootHash: {IsEdge: false, Left: l, Right: r}}

	left, right, err := GetChildren(pre, Triplet{Length: 0, Hash: rootHash})
	require.NoError(t, err)
	require.True(t, left.Hash.Equal(l))
	require.True(t, right.Hash.Equal(r))
}

func TestGetChildrenEdgeNodeDescendsRight(t *testing.T) {
	edgeHash := field.FromUint64(7)
	path := field.FromUint64(0b101)

	left, right, err := GetChildren(Preimage{}, Triplet{Length: 3, Path: path, Hash: edgeHash})
	require.NoError(t, err)
	require.True(t, left.IsEmpty())
	require.Equal(t, uint64(2), right.Length)
	require.True(t, right.Path.Equal(field.FromUint64(1)))
	require.True(t, right.Hash.Equal(edgeHash))
}

func TestGetChildrenEdgeNodeDescendsLeft(t *testing.T) {
	edgeHash := field.FromUint64(7)
	path := field.FromUint64(0b001)

	left, right, err := GetChildren(Preimage{}, Triplet{Length: 3, Path: path, Hash: edgeHash})
	require.NoError(t, err)
	require.True(t, right.IsEmpty())
	require.Equal(t, uint64(2), left.Length)
	require.True(t, left.Path.Equal(field.FromUint64(1)))
	require.True(t, left.Hash.Equal(edgeHash))
}

func TestGetDescentsSingleModificationCollapsesFullPath(t *testing.T) {
	value := field.FromUint64(42)
	tree := BuildUpdateTree(4, []KeyLeaf{{Index: big.NewInt(9), Value: value}})
	require.NotNil(t, tree)

	dm, err := GetDescents(4, field.Zero, tree, nil, nil, Preimage{})
	require.NoError(t, err)
	require.Len(t, dm, 1)

	entry, ok := dm[DescentStart{Height: 4, Path: field.Zero}]
	require.True(t, ok)
	require.Equal(t, uint(4), entry.Length)
	require.True(t, entry.Path.Equal(field.FromUint64(9)))
}

func TestPatriciaGuessDescentsWithEmptyRootsMatchesRawWalk(t *testing.T) {
	value := field.FromUint64(7)
	tree := BuildUpdateTree(4, []KeyLeaf{{Index: big.NewInt(9), Value: value}})

	dm, err := PatriciaGuessDescents(4, tree, Preimage{}, field.Zero, field.Zero)
	require.NoError(t, err)
	require.Len(t, dm, 1)
}

func TestPatriciaGuessDescentsNilTreeIsEmptyMap(t *testing.T) {
	dm, err := PatriciaGuessDescents(4, nil, Preimage{}, field.Zero, field.Zero)
	require.NoError(t, err)
	require.Empty(t, dm)
}

func TestGeneratePreimageRoundTripsEdgeAndBinary(t *testing.T) {
	binary := trienode.NewBinary(field.FromUint64(1), field.FromUint64(2), false)
	edge := trienode.NewEdge(5, field.FromUint64(0b10101), field.FromUint64(3), false)

	pre := GeneratePreimage([]trienode.Node{binary, edge})
	require.Len(t, pre, 2)

	bEntry, ok := pre[binary.Hash()]
	require.True(t, ok)
	require.False(t, bEntry.IsEdge)
	require.True(t, bEntry.Left.Equal(field.FromUint64(1)))
	require.True(t, bEntry.Right.Equal(field.FromUint64(2)))

	eEntry, ok := pre[edge.Hash()]
	require.True(t, ok)
	require.True(t, eEntry.IsEdge)
	require.Equal(t, uint64(5), eEntry.Length)
	require.True(t, eEntry.Child.Equal(field.FromUint64(3)))
}
