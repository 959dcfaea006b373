package kvtrie

import (
	"fmt"

	"github.com/hdp-go/hdp/internal/field"
)

// Proof is the ordered list of nodes traversed from a root to a key's leaf
// (or to the point of divergence, for a non-member proof), spec.md §4.A.
type Proof struct {
	Root  field.F
	Key   field.F
	Nodes []Node
}

// Outcome is the result of replaying a proof against a claimed root and leaf.
type Outcome uint8

const (
	// Member: the path was fully consumed and the claimed leaf matches.
	Member Outcome = iota
	// NonMember: the path diverges before reaching a leaf, or the proof is
	// empty against a zero root — the key provably has no entry.
	NonMember
	// None: the replayed hashes do not match the claimed root; the proof is
	// rejected outright.
	None
)

// LeafProof returns the proof for key against root, whatever the key's
// membership: a full path for a present key, or the path to the divergence
// point for an absent one. An empty root produces an empty proof.
func (t *Trie) LeafProof(key field.F) (Proof, error) {
	path := keyPathBits(key)
	nodes, err := t.collectProof(t.root, 0, path)
	if err != nil {
		return Proof{}, err
	}
	return Proof{Root: t.root, Key: key, Nodes: nodes}, nil
}

func (t *Trie) collectProof(hash field.F, consumed uint, path [Height]uint8) ([]Node, error) {
	if hash.IsZero() {
		return nil, nil
	}
	height := Height - consumed
	if height == 0 {
		return nil, nil
	}
	node, exists, err := t.loadNode(hash)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	if node.IsEdge() {
		edgeBits := fieldToBits(node.Path, node.Length)
		queryBits := path[consumed : min(consumed+node.Length, Height)]
		common := commonPrefixLen(edgeBits, queryBits)
		if common < node.Length || node.Length > uint(len(queryBits)) {
			// Diverges partway along the edge: non-member, stop here.
			return []Node{node}, nil
		}
		if node.IsLeafLevel() {
			return []Node{node}, nil
		}
		rest, err := t.collectProof(node.Child, consumed+node.Length, path)
		if err != nil {
			return nil, err
		}
		return append([]Node{node}, rest...), nil
	}
	bit := path[consumed]
	var childHash field.F
	if bit == 0 {
		childHash = node.Left
	} else {
		childHash = node.Right
	}
	if node.IsLeafLevel() {
		return []Node{node}, nil
	}
	rest, err := t.collectProof(childHash, consumed+1, path)
	if err != nil {
		return nil, err
	}
	return append([]Node{node}, rest...), nil
}

// VerifyProof replays proof and reports Member, NonMember, or None per
// spec.md §4.A's three outcomes.
func VerifyProof(proof Proof, claimedLeaf field.F) (Outcome, error) {
	if len(proof.Nodes) == 0 {
		if proof.Root.IsZero() {
			return NonMember, nil
		}
		return None, nil
	}

	path := keyPathBits(proof.Key)
	consumed := uint(0)
	cur := proof.Root

	for i, node := range proof.Nodes {
		if !node.Hash().Equal(cur) {
			return None, nil
		}
		if node.IsEdge() {
			edgeBits := fieldToBits(node.Path, node.Length)
			remaining := path[consumed:]
			if uint(len(remaining)) < node.Length {
				return None, fmt.Errorf("kvtrie: proof shorter than path")
			}
			queryBits := remaining[:node.Length]
			if !bitsEqual(edgeBits, queryBits) {
				if i != len(proof.Nodes)-1 {
					return None, fmt.Errorf("kvtrie: divergent edge not the terminal proof node")
				}
				return NonMember, nil
			}
			consumed += node.Length
			if node.IsLeafLevel() {
				if i != len(proof.Nodes)-1 {
					return None, fmt.Errorf("kvtrie: leaf-level edge not terminal")
				}
				if node.Child.Equal(claimedLeaf) && !claimedLeaf.IsZero() {
					return Member, nil
				}
				return None, nil
			}
			cur = node.Child
			continue
		}
		bit := path[consumed]
		var childHash field.F
		if bit == 0 {
			childHash = node.Left
		} else {
			childHash = node.Right
		}
		consumed++
		if node.IsLeafLevel() {
			if i != len(proof.Nodes)-1 {
				return None, fmt.Errorf("kvtrie: leaf-level binary not terminal")
			}
			if childHash.Equal(claimedLeaf) && !claimedLeaf.IsZero() {
				return Member, nil
			}
			if childHash.IsZero() && claimedLeaf.IsZero() {
				return NonMember, nil
			}
			return None, nil
		}
		cur = childHash
	}
	return None, fmt.Errorf("kvtrie: proof did not terminate at a leaf")
}
