package descent

import (
	"fmt"
	"math/big"

	"github.com/hdp-go/hdp/internal/field"
)

// KeyLeaf is one (tree index, leaf value) modification fed to BuildUpdateTree.
type KeyLeaf struct {
	Index *big.Int
	Value field.F
}

// BuildUpdateTree constructs the update tree bottom-up from a list of
// modifications, collapsing pairs of siblings into parents until `height`
// produces a single root. Ported from tree.rs's build_update_tree.
func BuildUpdateTree(height uint, modifications []KeyLeaf) *UpdateTree {
	if len(modifications) == 0 {
		return nil
	}

	layer := map[string]*UpdateTree{}
	idxOf := map[string]*big.Int{}
	for _, m := range modifications {
		k := m.Index.Text(16)
		v := m.Value
		layer[k] = &UpdateTree{IsLeaf: true, Leaf: &v}
		idxOf[k] = new(big.Int).Set(m.Index)
	}

	for h := uint(0); h < height; h++ {
		parents := map[string]*big.Int{}
		for _, idx := range idxOf {
			p := new(big.Int).Rsh(idx, 1)
			parents[p.Text(16)] = p
		}
		newLayer := make(map[string]*UpdateTree, len(parents))
		newIdxOf := make(map[string]*big.Int, len(parents))
		for pk, p := range parents {
			leftIdx := new(big.Int).Lsh(p, 1)
			rightIdx := new(big.Int).Add(leftIdx, big.NewInt(1))
			left := layer[leftIdx.Text(16)]
			right := layer[rightIdx.Text(16)]
			newLayer[pk] = &UpdateTree{Left: left, Right: right}
			newIdxOf[pk] = p
		}
		layer = newLayer
		idxOf = newIdxOf
	}

	return layer[big.NewInt(0).Text(16)]
}

// DecodeCase classifies which side(s) of a branch node carry a modification.
type DecodeCase uint8

const (
	CaseLeft DecodeCase = iota
	CaseRight
	CaseBoth
)

// DecodeNode identifies which children of a branch node are modified.
func DecodeNode(node *UpdateTree) (left, right *UpdateTree, c DecodeCase, err error) {
	if node.IsLeaf {
		return nil, nil, 0, fmt.Errorf("descent: unexpected leaf where a branch was expected")
	}
	switch {
	case node.Left == nil && node.Right != nil:
		return node.Left, node.Right, CaseRight, nil
	case node.Left != nil && node.Right == nil:
		return node.Left, node.Right, CaseLeft, nil
	case node.Left != nil && node.Right != nil:
		return node.Left, node.Right, CaseBoth, nil
	default:
		return nil, nil, 0, fmt.Errorf("descent: branch node with no children")
	}
}

// Canonic returns the canonical Triplet for a node hash: if the hash
// resolves to an edge in the preimage, the triplet carries the edge's
// (length, path, child); otherwise it is the binary-node triplet
// (0, 0, hash).
func Canonic(preimage Preimage, hash field.F) Triplet {
	if entry, ok := preimage[hash]; ok && entry.IsEdge {
		return Triplet{Length: entry.Length, Path: entry.Path, Hash: entry.Child}
	}
	return Triplet{Length: 0, Path: field.Zero, Hash: hash}
}

// GetChildren derives a node's two children from the preimage (for a binary
// node) or from the edge's own path (for an edge node), ported from
// tree.rs's get_children.
func GetChildren(preimage Preimage, node Triplet) (left, right Triplet, err error) {
	if node.Length == 0 {
		var leftHash, rightHash field.F
		if node.Hash.IsZero() {
			leftHash, rightHash = field.Zero, field.Zero
		} else {
			entry, ok := preimage[node.Hash]
			if !ok {
				return Triplet{}, Triplet{}, fmt.Errorf("descent: preimage not found for %s", node.Hash)
			}
			if entry.IsEdge {
				return Triplet{}, Triplet{}, fmt.Errorf("descent: expected binary preimage entry for %s, found edge", node.Hash)
			}
			leftHash, rightHash = entry.Left, entry.Right
		}
		return Canonic(preimage, leftHash), Canonic(preimage, rightHash), nil
	}

	// Edge node: the most significant bit of the path decides which side it
	// descends into; the other side is canonically empty.
	pathBig := fieldToBigInt(node.Path)
	msb := new(big.Int).Rsh(pathBig, uint(node.Length-1))
	if msb.Sign() == 0 {
		return Triplet{Length: node.Length - 1, Path: node.Path, Hash: node.Hash}, EmptyTriplet, nil
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(node.Length-1))
	newWord := new(big.Int).Sub(pathBig, half)
	return EmptyTriplet, Triplet{Length: node.Length - 1, Path: field.FromBigInt(newWord), Hash: node.Hash}, nil
}

func fieldToBigInt(f field.F) *big.Int {
	b := f.Bytes32()
	return new(big.Int).SetBytes(b[:])
}
